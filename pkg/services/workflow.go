package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefinitionValidator runs the save-time checks of a workflow graph.
type DefinitionValidator interface {
	Validate(def *models.WorkflowDefinition) error
}

type Workflow struct {
	persistence persistence.WorkflowRepository
	definitions DefinitionValidator
	validate    *validator.Validate
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.WorkflowRepository, definitions DefinitionValidator) *Workflow {
	return &Workflow{
		persistence: persistence,
		definitions: definitions,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// List returns the workflows of an organization, newest first.
func (w *Workflow) List(ctx context.Context, organizationID string) ([]*models.WorkflowDefinition, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, ErrOrganizationRequired
	}

	workflows, err := w.persistence.Workflows(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow of the organization by its ID.
func (w *Workflow) FetchByID(ctx context.Context, organizationID, id string) (*models.WorkflowDefinition, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, ErrOrganizationRequired
	}

	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow.OrganizationID != organizationID {
		return nil, persistence.NewWorkflowError("FetchByID", id, ErrWorkflowNotFound)
	}

	return workflow, nil
}

// Create validates and stores a new workflow owned by the organization.
func (w *Workflow) Create(ctx context.Context, organizationID string, workflow *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, ErrOrganizationRequired
	}

	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.OrganizationID = organizationID
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	err := w.check("Create", workflow)
	if err != nil {
		return nil, err
	}

	err = w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update replaces an existing workflow. Runs already in flight keep the definition they started with.
func (w *Workflow) Update(
	ctx context.Context,
	organizationID string,
	workflowID string,
	workflow *models.WorkflowDefinition,
) (*models.WorkflowDefinition, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	existing, err := w.FetchByID(ctx, organizationID, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.ID = workflowID
	workflow.OrganizationID = existing.OrganizationID
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	err = w.check("Update", workflow)
	if err != nil {
		return nil, err
	}

	err = w.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete removes a workflow by its ID. Its runs are kept.
func (w *Workflow) Delete(ctx context.Context, organizationID, workflowID string) error {
	_, err := w.FetchByID(ctx, organizationID, workflowID)
	if err != nil {
		return err
	}

	err = w.persistence.DeleteWorkflow(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

func (w *Workflow) check(op string, workflow *models.WorkflowDefinition) error {
	err := w.validate.Struct(workflow)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make([]string, 0, len(validationErrors))
			for _, fieldErr := range validationErrors {
				fields = append(fields, fmt.Sprintf("%s failed on %s", fieldErr.Namespace(), fieldErr.Tag()))
			}

			return NewValidationError(op, "INVALID_WORKFLOW", strings.Join(fields, "; "), ErrInvalidRequest)
		}

		return NewValidationError(op, "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	if w.definitions == nil {
		return nil
	}

	err = w.definitions.Validate(workflow)
	if err != nil {
		return NewValidationError(op, "INVALID_DEFINITION", err.Error(), err)
	}

	return nil
}
