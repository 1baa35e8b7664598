// Package action provides the node that dispatches to an action kind.
package action

import (
	"context"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
)

// Evaluator resolves config.actionType and runs the action with config.config.
type Evaluator struct {
	actions protocol.ActionResolver
}

func NewEvaluator(actions protocol.ActionResolver) *Evaluator {
	return &Evaluator{actions: actions}
}

func (e *Evaluator) Evaluate(ctx context.Context, node *models.WorkflowNode, wctx *models.WorkflowContext) (any, error) {
	act, err := e.actions.Action(node.ActionType())
	if err != nil {
		return nil, err
	}

	return act.Execute(ctx, node.ActionConfig(), wctx)
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(actions protocol.ActionResolver) (protocol.NodeEvaluator, error) {
	return NewEvaluator(actions), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeAction
}

func (f *Factory) Name() string {
	return "Action"
}

func (f *Factory) Description() string {
	return "Runs an AI, HTTP or delay action selected by config.actionType."
}
