// Package persistence provides the storage abstraction for workflow definitions and runs.
package persistence

import (
	"context"
	"time"

	"github.com/aaiaas/automation/pkg/models"
)

// RunRecorder is what the engine needs to record a run: one create and exactly one terminal write.
// Terminal writes only apply to runs still in the running state and fail with ErrRunAlreadyFinished otherwise.
type RunRecorder interface {
	CreateRun(ctx context.Context, run *models.WorkflowRun) error
	CompleteRun(ctx context.Context, id string, output any, completedAt time.Time) error
	FailRun(ctx context.Context, id string, message string, completedAt time.Time) error
	CancelRun(ctx context.Context, id string, completedAt time.Time) error
}

type RunRepository interface {
	RunRecorder

	RunByID(ctx context.Context, id string) (*models.WorkflowRun, error)
	// RunsByWorkflow returns the most recent runs first; limit <= 0 means no limit.
	RunsByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowRun, error)
}

type WorkflowRepository interface {
	// Workflows lists the workflows of an organization, or of every organization when organizationID is empty.
	Workflows(ctx context.Context, organizationID string) ([]*models.WorkflowDefinition, error)
	WorkflowByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	SaveWorkflow(ctx context.Context, workflow *models.WorkflowDefinition) error
	DeleteWorkflow(ctx context.Context, id string) error
}

type Persistence interface {
	WorkflowRepository
	RunRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
