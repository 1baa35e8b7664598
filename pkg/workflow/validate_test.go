package workflow_test

import (
	"testing"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Validate(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)

	tests := []struct {
		name    string
		nodes   []*models.WorkflowNode
		problem string
	}{
		{
			name:    "no nodes",
			problem: "workflow has no nodes",
		},
		{
			name:    "no trigger",
			nodes:   []*models.WorkflowNode{transformNode("a", "A")},
			problem: "No trigger node found in workflow",
		},
		{
			name: "two triggers",
			nodes: []*models.WorkflowNode{
				triggerNode(),
				{ID: "t2", Type: models.NodeTypeTrigger},
			},
			problem: "2 trigger nodes",
		},
		{
			name:    "duplicate ids",
			nodes:   []*models.WorkflowNode{triggerNode("a"), transformNode("a", "A"), transformNode("a", "B")},
			problem: `duplicate node id "a"`,
		},
		{
			name:    "unknown successor",
			nodes:   []*models.WorkflowNode{triggerNode("ghost")},
			problem: `node t references unknown node "ghost"`,
		},
		{
			name:    "cycle",
			nodes:   []*models.WorkflowNode{triggerNode("a"), transformNode("a", "A", "b"), transformNode("b", "B", "a")},
			problem: "cycle detected: a -> b -> a",
		},
		{
			name:    "unknown node type",
			nodes:   []*models.WorkflowNode{triggerNode("l"), {ID: "l", Type: "loop"}},
			problem: "Unknown node type: loop",
		},
		{
			name: "unknown action type",
			nodes: []*models.WorkflowNode{
				triggerNode("a"),
				{ID: "a", Type: models.NodeTypeAction, Config: map[string]any{"actionType": "send_fax"}},
			},
			problem: "Unknown action type: send_fax",
		},
		{
			name:    "invalid action config",
			nodes:   []*models.WorkflowNode{triggerNode("d"), delayNode("d", -5)},
			problem: "node d: invalid delay config",
		},
		{
			name: "condition without expression",
			nodes: []*models.WorkflowNode{
				triggerNode("c"),
				{ID: "c", Type: models.NodeTypeCondition, Config: map[string]any{}},
			},
			problem: "node c:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := engine.Validate(definition(tt.nodes...))
			require.ErrorIs(t, err, workflow.ErrInvalidDefinition)

			var validationErr *workflow.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Error(), tt.problem)
		})
	}
}

func TestEngine_Validate_Valid(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)

	def := definition(
		triggerNode("c", "d"),
		&models.WorkflowNode{ID: "c", Type: models.NodeTypeCondition, Config: map[string]any{"condition": "{{score}} > 10"}},
		delayNode("d", 10),
	)

	require.NoError(t, engine.Validate(def))
	require.Error(t, engine.Validate(nil))
}

func TestStep_Collapse(t *testing.T) {
	t.Parallel()

	leaf := func(v any) *workflow.Step { return &workflow.Step{Result: v} }

	assert.Equal(t, "own", leaf("own").Collapse())

	single := &workflow.Step{Result: "parent", Children: []*workflow.Step{leaf("child")}}
	assert.Equal(t, "child", single.Collapse())

	nested := &workflow.Step{
		Result: "root",
		Children: []*workflow.Step{
			{Result: "a", Children: []*workflow.Step{leaf("a1"), leaf("a2")}},
			{Result: "b", Children: []*workflow.Step{leaf("b1")}},
		},
	}
	assert.Equal(t, []any{[]any{"a1", "a2"}, "b1"}, nested.Collapse())
}
