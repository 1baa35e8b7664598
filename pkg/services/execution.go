package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aaiaas/automation/pkg/eventbus"
	"github.com/aaiaas/automation/pkg/events"
	"github.com/aaiaas/automation/pkg/metrics"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/aaiaas/automation/pkg/ratelimit"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultRunsLimit bounds ListByWorkflow when the caller gives no limit.
const DefaultRunsLimit = 50

// TriggerRequest asks for one asynchronous execution of a workflow.
type TriggerRequest struct {
	WorkflowID     string `validate:"required"`
	OrganizationID string `validate:"required"`
	UserID         string
	Input          map[string]any
	// APIKey is the caller's bearer credential, exposed to the run as variables.apiKey.
	APIKey string
}

type TriggerResponse struct {
	ExecutionID string           `json:"executionId"`
	Status      models.RunStatus `json:"status"`
}

type Execution struct {
	workflows persistence.WorkflowRepository
	runs      persistence.RunRepository
	publisher eventbus.EventPublisher
	limiter   ratelimit.Limiter
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewExecution(
	workflows persistence.WorkflowRepository,
	runs persistence.RunRepository,
	publisher eventbus.EventPublisher,
	limiter ratelimit.Limiter,
	logger *slog.Logger,
) *Execution {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}

	return &Execution{
		workflows: workflows,
		runs:      runs,
		publisher: publisher,
		limiter:   limiter,
		logger:    logger.With("module", "execution_service"),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Trigger loads the workflow, charges the organization's rate limit and hands the execution to a
// runner through the event bus. It returns before the run starts; the run record appears once a
// runner picks the request up.
func (s *Execution) Trigger(ctx context.Context, req TriggerRequest) (*TriggerResponse, error) {
	err := s.validate.Struct(req)
	if err != nil {
		return nil, NewValidationError("Trigger", "INVALID_EXECUTION_REQUEST", err.Error(), ErrInvalidRequest)
	}

	def, err := s.workflows.WorkflowByID(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}

	if def.OrganizationID != req.OrganizationID {
		return nil, persistence.NewWorkflowError("Trigger", req.WorkflowID, ErrWorkflowNotFound)
	}

	decision, err := s.limiter.Allow(ctx, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if !decision.Allowed {
		metrics.RateLimited()

		return nil, &RateLimitError{OrganizationID: req.OrganizationID, Limit: decision.Limit, ResetAt: decision.ResetAt}
	}

	executionID := uuid.New().String()

	variables := map[string]any{}
	if req.APIKey != "" {
		variables[models.APIKeyVariable] = req.APIKey
	}

	event := events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, def.ID, def.OrganizationID),
		ExecutionID: executionID,
		UserID:      req.UserID,
		Input:       req.Input,
		Variables:   variables,
	}

	err = s.publisher.Publish(ctx, executionID, event)
	if err != nil {
		return nil, fmt.Errorf("failed to dispatch execution: %w", err)
	}

	s.logger.InfoContext(ctx, "Execution requested",
		"execution_id", executionID,
		"workflow_id", def.ID,
		"organization_id", def.OrganizationID,
	)

	return &TriggerResponse{ExecutionID: executionID, Status: models.RunStatusRunning}, nil
}

// Status returns the run record of an execution of the organization.
func (s *Execution) Status(ctx context.Context, organizationID, executionID string) (*models.WorkflowRun, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, ErrOrganizationRequired
	}

	run, err := s.runs.RunByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	if run.OrganizationID != organizationID {
		return nil, persistence.NewRunError("Status", executionID, ErrExecutionNotFound)
	}

	return run, nil
}

// ListByWorkflow returns the most recent runs of a workflow of the organization.
func (s *Execution) ListByWorkflow(ctx context.Context, organizationID, workflowID string, limit int) ([]*models.WorkflowRun, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, ErrOrganizationRequired
	}

	def, err := s.workflows.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if def.OrganizationID != organizationID {
		return nil, persistence.NewWorkflowError("ListByWorkflow", workflowID, ErrWorkflowNotFound)
	}

	if limit <= 0 {
		limit = DefaultRunsLimit
	}

	runs, err := s.runs.RunsByWorkflow(ctx, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// Cancel requests the cancellation of a running execution. The runner executing it ends the run
// as cancelled at the next node boundary or blocking call.
func (s *Execution) Cancel(ctx context.Context, organizationID, executionID string) error {
	run, err := s.Status(ctx, organizationID, executionID)
	if err != nil {
		return err
	}

	if run.Status.IsTerminal() {
		return persistence.NewRunError("Cancel", executionID, ErrExecutionFinished)
	}

	event := events.ExecutionCancelRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionCancelRequestedEvent, run.WorkflowID, run.OrganizationID),
		ExecutionID: executionID,
	}

	err = s.publisher.Publish(ctx, executionID, event)
	if err != nil {
		return fmt.Errorf("failed to dispatch cancellation: %w", err)
	}

	s.logger.InfoContext(ctx, "Execution cancellation requested", "execution_id", executionID)

	return nil
}
