package protocol

import (
	"errors"
	"fmt"

	"github.com/aaiaas/automation/pkg/models"
)

var (
	ErrUnknownNodeType   = errors.New("unknown node type")
	ErrUnknownActionType = errors.New("unknown action type")
)

// UnknownNodeTypeError is raised when no evaluator serves a node type.
type UnknownNodeTypeError struct {
	Type models.NodeType
}

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("Unknown node type: %s", e.Type)
}

func (e *UnknownNodeTypeError) Is(target error) bool {
	return target == ErrUnknownNodeType
}

// UnknownActionTypeError is raised when no action serves an action type.
type UnknownActionTypeError struct {
	Type models.ActionType
}

func (e *UnknownActionTypeError) Error() string {
	return fmt.Sprintf("Unknown action type: %s", e.Type)
}

func (e *UnknownActionTypeError) Is(target error) bool {
	return target == ErrUnknownActionType
}
