// Package trigger provides the workflow entry node.
package trigger

import (
	"context"
	"fmt"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
)

// Evaluator marks where traversal begins. Its result is a snapshot of the run variables.
type Evaluator struct{}

func (e *Evaluator) Evaluate(_ context.Context, _ *models.WorkflowNode, wctx *models.WorkflowContext) (any, error) {
	return wctx.SnapshotVariables(), nil
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(_ protocol.ActionResolver) (protocol.NodeEvaluator, error) {
	return &Evaluator{}, nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeTrigger
}

func (f *Factory) Name() string {
	return "Trigger"
}

func (f *Factory) Description() string {
	return "Entry point of a workflow. Passes the run variables through unchanged."
}

// ValidateConfig checks the optional cron schedule.
func (f *Factory) ValidateConfig(node *models.WorkflowNode) error {
	raw, exists := node.Config[models.ScheduleConfigKey]
	if !exists {
		return nil
	}

	expr, ok := raw.(string)
	if !ok {
		return fmt.Errorf("trigger %s: %w: schedule must be a string", node.ID, models.ErrInvalidSchedule)
	}

	_, err := models.ParseSchedule(expr)
	if err != nil {
		return fmt.Errorf("trigger %s: %w", node.ID, err)
	}

	return nil
}
