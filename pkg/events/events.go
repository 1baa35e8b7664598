// Package events defines the execution events exchanged between the API, the scheduler and the runners.
package events

import (
	"time"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every execution event. Events of one execution share a partition key.
const Topic = "automation.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionRequestedEvent       EventType = "execution.requested"
	ExecutionCancelRequestedEvent EventType = "execution.cancel_requested"
	ExecutionFinishedEvent        EventType = "execution.finished"
)

type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	WorkflowID     string    `json:"workflow_id"`
	OrganizationID string    `json:"organization_id"`
}

func NewBaseEvent(eventType EventType, workflowID, organizationID string) BaseEvent {
	return BaseEvent{
		ID:             uuid.New().String(),
		Type:           eventType,
		Timestamp:      time.Now().UTC(),
		WorkflowID:     workflowID,
		OrganizationID: organizationID,
	}
}

// ExecutionRequested asks a runner to execute a workflow. Variables seed the run context
// and carry the caller's credential.
type ExecutionRequested struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	UserID      string         `json:"user_id"`
	Input       map[string]any `json:"input,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
}

func (e ExecutionRequested) GetType() EventType {
	return ExecutionRequestedEvent
}

type ExecutionCancelRequested struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
}

func (e ExecutionCancelRequested) GetType() EventType {
	return ExecutionCancelRequestedEvent
}

// ExecutionFinished is published by the runner after the terminal write of a run.
type ExecutionFinished struct {
	BaseEvent

	ExecutionID string           `json:"execution_id"`
	Status      models.RunStatus `json:"status"`
	Error       string           `json:"error,omitempty"`
	Duration    time.Duration    `json:"duration"`
}

func (e ExecutionFinished) GetType() EventType {
	return ExecutionFinishedEvent
}

// New returns an empty event of the given type to decode a payload into.
func New(eventType EventType) (Event, bool) {
	switch eventType {
	case ExecutionRequestedEvent:
		return &ExecutionRequested{}, true
	case ExecutionCancelRequestedEvent:
		return &ExecutionCancelRequested{}, true
	case ExecutionFinishedEvent:
		return &ExecutionFinished{}, true
	default:
		return nil, false
	}
}
