package postgresql

import (
	"context"
	"time"

	"github.com/aaiaas/automation/pkg/models"
)

func (p *Persistence) Workflows(ctx context.Context, organizationID string) ([]*models.WorkflowDefinition, error) {
	return p.workflowRepo.GetAll(ctx, organizationID)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return p.workflowRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.WorkflowDefinition) error {
	return p.workflowRepo.Save(ctx, workflow)
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	return p.workflowRepo.Delete(ctx, id)
}

func (p *Persistence) CreateRun(ctx context.Context, run *models.WorkflowRun) error {
	return p.runRepo.Create(ctx, run)
}

func (p *Persistence) CompleteRun(ctx context.Context, id string, output any, completedAt time.Time) error {
	return p.runRepo.Finish(ctx, "CompleteRun", id, models.RunStatusCompleted, output, "", completedAt)
}

func (p *Persistence) FailRun(ctx context.Context, id string, message string, completedAt time.Time) error {
	return p.runRepo.Finish(ctx, "FailRun", id, models.RunStatusFailed, nil, message, completedAt)
}

func (p *Persistence) CancelRun(ctx context.Context, id string, completedAt time.Time) error {
	return p.runRepo.Finish(ctx, "CancelRun", id, models.RunStatusCancelled, nil, "", completedAt)
}

func (p *Persistence) RunByID(ctx context.Context, id string) (*models.WorkflowRun, error) {
	return p.runRepo.GetByID(ctx, id)
}

func (p *Persistence) RunsByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowRun, error) {
	return p.runRepo.GetByWorkflow(ctx, workflowID, limit)
}
