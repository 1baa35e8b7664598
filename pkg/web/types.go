package web

import (
	"github.com/aaiaas/automation/pkg/models"
)

// WorkflowRequest is the body of workflow creation and full replacement.
type WorkflowRequest struct {
	Name        string                 `json:"name"                  validate:"required,min=1"`
	Description string                 `json:"description,omitempty"`
	Nodes       []*models.WorkflowNode `json:"nodes"                 validate:"required,min=1,dive"`
	Variables   map[string]any         `json:"variables,omitempty"`
}

func (r WorkflowRequest) definition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Name:        r.Name,
		Description: r.Description,
		Nodes:       r.Nodes,
		Variables:   r.Variables,
	}
}

// TriggerExecutionRequest is the body of POST /executions.
type TriggerExecutionRequest struct {
	WorkflowID string         `json:"workflowId" validate:"required"`
	Input      map[string]any `json:"input"`
}

// ExecutionResponse is the public view of a run record.
type ExecutionResponse struct {
	ID          string           `json:"id"`
	WorkflowID  string           `json:"workflowId"`
	Status      models.RunStatus `json:"status"`
	Input       map[string]any   `json:"input,omitempty"`
	Output      any              `json:"output,omitempty"`
	Error       string           `json:"error,omitempty"`
	StartedAt   string           `json:"startedAt"`
	CompletedAt string           `json:"completedAt,omitempty"`
	DurationMS  int64            `json:"durationMs,omitempty"`
}

func toExecutionResponse(run *models.WorkflowRun) ExecutionResponse {
	response := ExecutionResponse{
		ID:         run.ID,
		WorkflowID: run.WorkflowID,
		Status:     run.Status,
		Input:      run.Input,
		Output:     run.Output,
		Error:      run.Error,
		StartedAt:  run.StartedAt.UTC().Format(timeFormat),
	}

	if run.CompletedAt != nil {
		response.CompletedAt = run.CompletedAt.UTC().Format(timeFormat)
		response.DurationMS = run.Duration().Milliseconds()
	}

	return response
}

// CatalogEntry describes a registered node type or action kind.
type CatalogEntry struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema,omitempty"`
}
