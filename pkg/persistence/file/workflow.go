package file

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/google/uuid"
)

// Workflows returns the workflows of an organization, newest first.
func (fp *Persistence) Workflows(_ context.Context, organizationID string) ([]*models.WorkflowDefinition, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	ids, err := fp.documentIDs(workflowsDir)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.WorkflowDefinition, 0, len(ids))

	for _, id := range ids {
		var workflow models.WorkflowDefinition

		err := fp.readDocument(workflowsDir, id, &workflow)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
		}

		if organizationID != "" && workflow.OrganizationID != organizationID {
			continue
		}

		workflows = append(workflows, &workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (fp *Persistence) WorkflowByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	var workflow models.WorkflowDefinition

	err := fp.readDocument(workflowsDir, id, &workflow)
	if err != nil {
		if isNotExist(err) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	return &workflow, nil
}

// SaveWorkflow creates or replaces a workflow, assigning an id and timestamps when missing.
func (fp *Persistence) SaveWorkflow(_ context.Context, workflow *models.WorkflowDefinition) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	err := fp.writeDocument(workflowsDir, workflow.ID, workflow)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

func (fp *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	filePath, err := fp.documentPath(workflowsDir, id)
	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	err = os.Remove(filePath)
	if err != nil {
		if isNotExist(err) {
			return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	return nil
}
