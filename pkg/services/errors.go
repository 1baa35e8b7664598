// Package services implements the workflow and execution use cases behind the API and the scheduler.
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/aaiaas/automation/pkg/workflow"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrOrganizationRequired = errors.New("organization ID is required")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")

	// Not Found Errors (404 Not Found). Resources of another organization are reported as missing.
	ErrWorkflowNotFound  = persistence.ErrWorkflowNotFound
	ErrExecutionNotFound = persistence.ErrRunNotFound

	// Business Logic Conflicts (409 Conflict).
	ErrExecutionFinished = errors.New("execution already finished")

	// Rate limiting (429 Too Many Requests).
	ErrRateLimited = errors.New("execution rate limit exceeded")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// RateLimitError reports an organization over its execution quota.
type RateLimitError struct {
	OrganizationID string
	Limit          int
	ResetAt        time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("organization %s exceeded %d executions per window, resets at %s",
		e.OrganizationID, e.Limit, e.ResetAt.Format(time.RFC3339))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfter returns the wait until the window resets, never less than a second.
func (e *RateLimitError) RetryAfter() time.Duration {
	return max(time.Until(e.ResetAt).Round(time.Second), time.Second)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrOrganizationRequired) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, workflow.ErrInvalidDefinition)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) || errors.Is(err, ErrExecutionNotFound)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrExecutionFinished)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
