package condition_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/aaiaas/automation/pkg/expression"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/nodes/condition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvaluator() *condition.Evaluator {
	return condition.NewEvaluator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func conditionNode(config map[string]any) *models.WorkflowNode {
	return &models.WorkflowNode{ID: "c", Type: models.NodeTypeCondition, Config: config}
}

func TestEvaluator_Scenario(t *testing.T) {
	t.Parallel()

	node := conditionNode(map[string]any{"condition": "{{score}} > 10"})

	result, err := newEvaluator().Evaluate(context.Background(), node,
		&models.WorkflowContext{Variables: map[string]any{"score": 15}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"conditionMet": true}, result)

	result, err = newEvaluator().Evaluate(context.Background(), node,
		&models.WorkflowContext{Variables: map[string]any{"score": 5}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"conditionMet": false}, result)
}

func TestEvaluator_VariableReferences(t *testing.T) {
	t.Parallel()

	node := conditionNode(map[string]any{"condition": "node_fetch.status == 'ok' && '{{plan}}' == 'pro'"})

	result, err := newEvaluator().Evaluate(context.Background(), node, &models.WorkflowContext{Variables: map[string]any{
		"plan":       "pro",
		"node_fetch": map[string]any{"status": "ok"},
	}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"conditionMet": true}, result)
}

func TestEvaluator_GrammarFailureIsTypedError(t *testing.T) {
	t.Parallel()

	node := conditionNode(map[string]any{"condition": "process.exit(1)"})

	_, err := newEvaluator().Evaluate(context.Background(), node, &models.WorkflowContext{Variables: map[string]any{}})
	require.Error(t, err)

	var condErr *condition.ConditionError
	require.ErrorAs(t, err, &condErr)
	assert.Equal(t, "c", condErr.NodeID)

	var syntaxErr *expression.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestEvaluator_UnknownVariableIsTypedError(t *testing.T) {
	t.Parallel()

	node := conditionNode(map[string]any{"condition": "missing > 1"})

	_, err := newEvaluator().Evaluate(context.Background(), node, &models.WorkflowContext{Variables: map[string]any{}})

	var evalErr *expression.EvalError
	require.ErrorAs(t, err, &evalErr)
}

func TestEvaluator_LenientDowngradesToFalse(t *testing.T) {
	t.Parallel()

	node := conditionNode(map[string]any{"condition": "1 +", "lenient": true})

	result, err := newEvaluator().Evaluate(context.Background(), node, &models.WorkflowContext{Variables: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"conditionMet": false}, result)
}

func TestEvaluator_MissingCondition(t *testing.T) {
	t.Parallel()

	_, err := newEvaluator().Evaluate(context.Background(), conditionNode(nil), &models.WorkflowContext{})
	require.ErrorIs(t, err, condition.ErrMissingCondition)
}

func TestFactory_ValidateConfig(t *testing.T) {
	t.Parallel()

	factory := condition.NewFactory(slog.Default())

	require.NoError(t, factory.ValidateConfig(conditionNode(map[string]any{"condition": "a > 1"})))
	require.ErrorIs(t, factory.ValidateConfig(conditionNode(map[string]any{"condition": ""})), condition.ErrMissingCondition)
	require.Error(t, factory.ValidateConfig(conditionNode(map[string]any{"condition": "a", "lenient": "yes"})))
}
