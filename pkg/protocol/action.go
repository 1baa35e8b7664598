package protocol

import (
	"context"

	"github.com/aaiaas/automation/pkg/models"
)

// Action performs one side-effecting step of an action node.
type Action interface {
	Execute(ctx context.Context, config map[string]any, wctx *models.WorkflowContext) (any, error)
}

// ActionFactory creates actions of one kind and describes their configuration.
type ActionFactory interface {
	Create() (Action, error)

	ID() models.ActionType

	Name() string
	Description() string

	// Schema returns the JSON schema of the action's nested configuration.
	Schema() map[string]any
}

// ActionResolver looks up the action implementation for an action type.
type ActionResolver interface {
	Action(actionType models.ActionType) (Action, error)
}
