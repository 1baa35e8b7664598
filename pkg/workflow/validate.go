package workflow

import (
	"fmt"
	"strings"

	"github.com/aaiaas/automation/pkg/models"
)

// Validate runs the save-time checks of a definition: exactly one trigger, unique node ids, every
// node accepted by the registry, every next id resolving, and no cycles. All problems are reported
// together in a *ValidationError.
func (e *Engine) Validate(def *models.WorkflowDefinition) error {
	if def == nil {
		return &ValidationError{Problems: []string{"workflow definition is empty"}}
	}

	var problems []string

	if len(def.Nodes) == 0 {
		problems = append(problems, "workflow has no nodes")
	}

	ids := make(map[string]bool, len(def.Nodes))
	triggers := 0

	for i, node := range def.Nodes {
		if node == nil {
			problems = append(problems, fmt.Sprintf("node %d is empty", i))

			continue
		}

		switch {
		case node.ID == "":
			problems = append(problems, fmt.Sprintf("node %d has no id", i))
		case ids[node.ID]:
			problems = append(problems, fmt.Sprintf("duplicate node id %q", node.ID))
		default:
			ids[node.ID] = true
		}

		if node.Type == models.NodeTypeTrigger {
			triggers++
		}

		err := e.registry.ValidateNode(node)
		if err != nil {
			problems = append(problems, fmt.Sprintf("node %s: %v", node.ID, err))
		}
	}

	switch {
	case triggers == 0 && len(def.Nodes) > 0:
		problems = append(problems, ErrNoTriggerNode.Error())
	case triggers > 1:
		problems = append(problems, fmt.Sprintf("workflow has %d trigger nodes, expected exactly one", triggers))
	}

	for _, node := range def.Nodes {
		if node == nil {
			continue
		}

		for _, next := range node.Next {
			if !ids[next] {
				problems = append(problems, fmt.Sprintf("node %s references unknown node %q", node.ID, next))
			}
		}
	}

	if cycle := newArena(def.Nodes).cycle(); cycle != nil {
		problems = append(problems, "cycle detected: "+strings.Join(cycle, " -> "))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	return nil
}
