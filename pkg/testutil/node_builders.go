// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/aaiaas/automation/pkg/models"
)

// CreateTestNode creates a test WorkflowNode with default values that can be overridden.
func CreateTestNode(id string, overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:     id,
		Type:   models.NodeTypeTransform,
		Config: map[string]any{"transformation": id},
		Next:   []string{},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithTriggerNode configures the node as a trigger node.
func WithTriggerNode() func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeTrigger
		n.Config = map[string]any{}
	}
}

// WithSchedule configures a trigger node to fire on a cron schedule with the given input.
func WithSchedule(expr string, input map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeTrigger
		n.Config = map[string]any{models.ScheduleConfigKey: expr}

		if input != nil {
			n.Config["input"] = input
		}
	}
}

// WithCondition configures the node as a condition node.
func WithCondition(expression string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeCondition
		n.Config = map[string]any{"condition": expression}
	}
}

// WithAction configures the node as an action node of the given kind.
func WithAction(actionType models.ActionType, config map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeAction
		n.Config = map[string]any{"actionType": string(actionType)}

		if config != nil {
			n.Config["config"] = config
		}
	}
}

// WithTransformation configures the node as a transform node.
func WithTransformation(transformation any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeTransform
		n.Config = map[string]any{"transformation": transformation}
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Config = config
	}
}

// WithNext sets the node successors.
func WithNext(next ...string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Next = next
	}
}

// CreateTestWorkflow creates a workflow owned by organizationID from the given nodes.
func CreateTestWorkflow(id, organizationID string, nodes ...*models.WorkflowNode) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:             id,
		OrganizationID: organizationID,
		Name:           "Test Workflow " + id,
		Nodes:          nodes,
	}
}

// ScoreCheckWorkflow is a trigger followed by a condition on the score input.
func ScoreCheckWorkflow(id, organizationID string) *models.WorkflowDefinition {
	return CreateTestWorkflow(id, organizationID,
		CreateTestNode("t", WithTriggerNode(), WithNext("c")),
		CreateTestNode("c", WithCondition("{{score}} > 10")),
	)
}
