package trigger_test

import (
	"context"
	"testing"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/nodes/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_ReturnsSnapshotOfVariables(t *testing.T) {
	t.Parallel()

	wctx := &models.WorkflowContext{Variables: map[string]any{"score": 15, "nested": map[string]any{"a": 1}}}

	evaluator, err := trigger.NewFactory().Create(nil)
	require.NoError(t, err)

	result, err := evaluator.Evaluate(context.Background(), &models.WorkflowNode{ID: "t", Type: models.NodeTypeTrigger}, wctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"score": 15, "nested": map[string]any{"a": 1}}, result)

	wctx.Set("later", true)
	assert.NotContains(t, result, "later")
}

func TestFactory_ValidateConfig(t *testing.T) {
	t.Parallel()

	factory := trigger.NewFactory()

	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{name: "no schedule", config: nil},
		{name: "valid schedule", config: map[string]any{"schedule": "*/5 * * * *"}},
		{name: "invalid schedule", config: map[string]any{"schedule": "every minute"}, wantErr: true},
		{name: "non string schedule", config: map[string]any{"schedule": 5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := factory.ValidateConfig(&models.WorkflowNode{ID: "t", Type: models.NodeTypeTrigger, Config: tt.config})
			if tt.wantErr {
				require.ErrorIs(t, err, models.ErrInvalidSchedule)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
