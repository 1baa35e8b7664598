package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aaiaas/automation/pkg/eventbus"
	"github.com/aaiaas/automation/pkg/events"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/aaiaas/automation/pkg/workflow"
)

const DefaultMaxConcurrentRuns = 10

// Executor runs workflow definitions and cancels active runs.
type Executor interface {
	ExecuteWorkflow(ctx context.Context, def *models.WorkflowDefinition, wctx *models.WorkflowContext, input map[string]any) (any, error)
	Cancel(executionID string) bool
}

// Runner consumes execution requests from the event bus and runs them on the engine.
// At most maxConcurrent runs execute at once; further requests wait for a slot before they are acknowledged.
type Runner struct {
	engine    Executor
	workflows persistence.WorkflowRepository
	bus       eventbus.EventBus
	logger    *slog.Logger
	slots     chan struct{}
	wg        sync.WaitGroup
}

func NewRunner(engine Executor, workflows persistence.WorkflowRepository, bus eventbus.EventBus, logger *slog.Logger, maxConcurrent int) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRuns
	}

	return &Runner{
		engine:    engine,
		workflows: workflows,
		bus:       bus,
		logger:    logger.With("module", "runner"),
		slots:     make(chan struct{}, maxConcurrent),
	}
}

// Start registers the runner's handlers and subscribes to the bus. Runs stop when ctx is done.
func (r *Runner) Start(ctx context.Context) error {
	err := r.bus.Handle(events.ExecutionRequestedEvent, r.handleRequested)
	if err != nil {
		return err
	}

	err = r.bus.Handle(events.ExecutionCancelRequestedEvent, r.handleCancelRequested)
	if err != nil {
		return err
	}

	err = r.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Runner started", "max_concurrent_runs", cap(r.slots))

	return nil
}

// Wait blocks until every started run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) handleRequested(ctx context.Context, event any) error {
	req, ok := event.(*events.ExecutionRequested)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	logger := r.logger.With("execution_id", req.ExecutionID, "workflow_id", req.WorkflowID)

	def, err := r.workflows.WorkflowByID(ctx, req.WorkflowID)
	if err != nil {
		if errors.Is(err, persistence.ErrWorkflowNotFound) {
			logger.WarnContext(ctx, "Dropping execution of a deleted workflow")

			return nil
		}

		return err
	}

	select {
	case r.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.wg.Add(1)

	go func() {
		defer func() {
			<-r.slots
			r.wg.Done()
		}()

		r.execute(ctx, def, req, logger)
	}()

	return nil
}

// execute runs one request. Errors are logged and swallowed; the run record carries the outcome.
func (r *Runner) execute(ctx context.Context, def *models.WorkflowDefinition, req *events.ExecutionRequested, logger *slog.Logger) {
	wctx := &models.WorkflowContext{
		ExecutionID:    req.ExecutionID,
		OrganizationID: req.OrganizationID,
		UserID:         req.UserID,
		Variables:      req.Variables,
	}

	start := time.Now()

	_, err := r.engine.ExecuteWorkflow(ctx, def, wctx, req.Input)
	if errors.Is(err, persistence.ErrRunAlreadyExists) {
		logger.InfoContext(ctx, "Ignoring duplicate execution request")

		return
	}

	finished := events.ExecutionFinished{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFinishedEvent, def.ID, req.OrganizationID),
		ExecutionID: req.ExecutionID,
		Status:      models.RunStatusCompleted,
		Duration:    time.Since(start),
	}

	if err != nil {
		finished.Status = models.RunStatusFailed
		if errors.Is(err, workflow.ErrRunCancelled) {
			finished.Status = models.RunStatusCancelled
		}

		finished.Error = err.Error()

		logger.ErrorContext(ctx, "Workflow execution failed", "status", finished.Status, "error", err)
	}

	err = r.bus.Publish(context.WithoutCancel(ctx), req.ExecutionID, finished)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish execution finished event", "error", err)
	}
}

func (r *Runner) handleCancelRequested(ctx context.Context, event any) error {
	req, ok := event.(*events.ExecutionCancelRequested)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	if !r.engine.Cancel(req.ExecutionID) {
		r.logger.DebugContext(ctx, "Execution not active on this runner", "execution_id", req.ExecutionID)
	}

	return nil
}
