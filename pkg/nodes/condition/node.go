// Package condition provides the boolean condition node.
package condition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aaiaas/automation/pkg/expression"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
	"github.com/aaiaas/automation/pkg/template"
)

const (
	ConditionConfigKey = "condition"
	LenientConfigKey   = "lenient"
	ResultKey          = "conditionMet"
)

var ErrMissingCondition = errors.New("missing required field 'condition'")

// ConditionError reports a condition that could not be parsed or evaluated.
// It is distinct from a condition that evaluated to false.
type ConditionError struct {
	NodeID    string
	Condition string
	Err       error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition %q in node %s failed: %v", e.Condition, e.NodeID, e.Err)
}

func (e *ConditionError) Unwrap() error {
	return e.Err
}

// Evaluator interpolates config.condition and evaluates it with the restricted expression grammar.
// With config.lenient set, failures yield {conditionMet: false} instead of an error.
type Evaluator struct {
	logger *slog.Logger
}

func NewEvaluator(logger *slog.Logger) *Evaluator {
	return &Evaluator{logger: logger}
}

func (e *Evaluator) Evaluate(ctx context.Context, node *models.WorkflowNode, wctx *models.WorkflowContext) (any, error) {
	raw, ok := node.Config[ConditionConfigKey].(string)
	if !ok {
		return e.fail(ctx, node, "", ErrMissingCondition)
	}

	condition := template.Interpolate(raw, wctx.Variables)

	met, err := expression.EvaluateBool(condition, wctx.Variables)
	if err != nil {
		return e.fail(ctx, node, condition, err)
	}

	return map[string]any{ResultKey: met}, nil
}

func (e *Evaluator) fail(ctx context.Context, node *models.WorkflowNode, condition string, err error) (any, error) {
	condErr := &ConditionError{NodeID: node.ID, Condition: condition, Err: err}

	if lenient, _ := node.Config[LenientConfigKey].(bool); lenient {
		e.logger.WarnContext(ctx, "condition failed, treating as false", "node_id", node.ID, "error", condErr)

		return map[string]any{ResultKey: false}, nil
	}

	return nil, condErr
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	return &Factory{logger: logger}
}

func (f *Factory) Create(_ protocol.ActionResolver) (protocol.NodeEvaluator, error) {
	return NewEvaluator(f.logger), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeCondition
}

func (f *Factory) Name() string {
	return "Condition"
}

func (f *Factory) Description() string {
	return "Evaluates a comparison/boolean expression and returns {conditionMet: bool}."
}

// ValidateConfig requires a non-empty condition string.
func (f *Factory) ValidateConfig(node *models.WorkflowNode) error {
	raw, ok := node.Config[ConditionConfigKey].(string)
	if !ok || raw == "" {
		return fmt.Errorf("condition %s: %w", node.ID, ErrMissingCondition)
	}

	if _, exists := node.Config[LenientConfigKey]; exists {
		if _, ok := node.Config[LenientConfigKey].(bool); !ok {
			return fmt.Errorf("condition %s: lenient must be a boolean", node.ID)
		}
	}

	return nil
}
