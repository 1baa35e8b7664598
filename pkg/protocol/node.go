// Package protocol defines the contracts between the engine and pluggable evaluators.
package protocol

import (
	"context"

	"github.com/aaiaas/automation/pkg/models"
)

// NodeEvaluator computes the result of one node type. Evaluators may read the run
// context but must not write node results; the engine stores them.
type NodeEvaluator interface {
	Evaluate(ctx context.Context, node *models.WorkflowNode, wctx *models.WorkflowContext) (any, error)
}

// NodeFactory builds the evaluator for a node type and describes it.
type NodeFactory interface {
	// Create builds the evaluator; the resolver gives action nodes access to action kinds.
	Create(actions ActionResolver) (NodeEvaluator, error)

	// ID returns the node type this factory serves
	ID() models.NodeType

	Name() string
	Description() string
}

// ConfigValidator is implemented by node factories that check a node's configuration at save time.
type ConfigValidator interface {
	ValidateConfig(node *models.WorkflowNode) error
}
