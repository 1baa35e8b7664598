// Package transform provides the templated projection node.
package transform

import (
	"context"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
	"github.com/aaiaas/automation/pkg/template"
)

const TransformationConfigKey = "transformation"

// Evaluator interpolates config.transformation element-wise against the run variables.
type Evaluator struct{}

func (e *Evaluator) Evaluate(_ context.Context, node *models.WorkflowNode, wctx *models.WorkflowContext) (any, error) {
	return template.InterpolateValue(node.Config[TransformationConfigKey], wctx.Variables), nil
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(_ protocol.ActionResolver) (protocol.NodeEvaluator, error) {
	return &Evaluator{}, nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeTransform
}

func (f *Factory) Name() string {
	return "Transform"
}

func (f *Factory) Description() string {
	return "Builds a value by interpolating {{variable}} placeholders in strings, lists and objects."
}
