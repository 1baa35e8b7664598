package workflow

import (
	"errors"
	"strings"
)

var (
	//nolint:staticcheck // persisted verbatim as the run error
	ErrNoTriggerNode = errors.New("No trigger node found in workflow")

	ErrRunCancelled         = errors.New("run cancelled")
	ErrRunDeadlineExceeded  = errors.New("run deadline exceeded")
	ErrNodeDeadlineExceeded = errors.New("node deadline exceeded")
	ErrMaxNodeVisits        = errors.New("maximum node visits exceeded")
	ErrInvalidDefinition    = errors.New("invalid workflow definition")
	ErrNilDefinition        = errors.New("workflow definition is nil")
)

// ValidationError lists every problem found in a workflow definition.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidDefinition.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDefinition
}
