// Package workflow provides the engine that executes workflow definitions.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aaiaas/automation/pkg/metrics"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/otelhelper"
	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/aaiaas/automation/pkg/protocol"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxNodeVisits bounds a single run when a cyclic graph was never validated.
const DefaultMaxNodeVisits = 10000

const redacted = "[REDACTED]"

// NodeRegistry resolves node evaluators and checks nodes at save time.
type NodeRegistry interface {
	Evaluator(nodeType models.NodeType) (protocol.NodeEvaluator, error)
	ValidateNode(node *models.WorkflowNode) error
}

type Engine struct {
	registry      NodeRegistry
	recorder      persistence.RunRecorder
	logger        *slog.Logger
	tracer        trace.Tracer
	runTimeout    time.Duration
	nodeTimeout   time.Duration
	maxNodeVisits int
	now           func() time.Time

	mu      sync.Mutex
	running map[string]context.CancelCauseFunc
}

type Option func(*Engine)

// WithRunTimeout bounds the whole run; zero disables the deadline.
func WithRunTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runTimeout = d
	}
}

// WithNodeTimeout bounds every node evaluation; zero disables the deadline.
func WithNodeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.nodeTimeout = d
	}
}

func WithMaxNodeVisits(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxNodeVisits = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(registry NodeRegistry, recorder persistence.RunRecorder, logger *slog.Logger, tracer trace.Tracer, opts ...Option) *Engine {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	e := &Engine{
		registry:      registry,
		recorder:      recorder,
		logger:        logger.With("module", "engine"),
		tracer:        tracer,
		maxNodeVisits: DefaultMaxNodeVisits,
		now:           time.Now,
		running:       make(map[string]context.CancelCauseFunc),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ExecuteWorkflow runs a definition to completion. Variables are merged with definition defaults
// first, then the context's variables, then the input. The run record is created as running and
// written exactly once more: completed with the output, failed with the error message, or
// cancelled. A run whose output cannot be stored is recorded as failed. Errors are returned to the
// caller after the terminal write.
func (e *Engine) ExecuteWorkflow(
	ctx context.Context,
	def *models.WorkflowDefinition,
	wctx *models.WorkflowContext,
	input map[string]any,
) (any, error) {
	if def == nil {
		return nil, ErrNilDefinition
	}

	if wctx == nil {
		wctx = &models.WorkflowContext{}
	}

	if wctx.ExecutionID == "" {
		wctx.ExecutionID = uuid.NewString()
	}

	def = def.Snapshot()
	wctx.Variables = mergeVariables(def.Variables, wctx.Variables, input)

	logger := e.logger.With(
		"execution_id", wctx.ExecutionID,
		"workflow_id", def.ID,
		"organization_id", wctx.OrganizationID,
	)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.ExecutionIDKey, wctx.ExecutionID),
		attribute.String(otelhelper.WorkflowIDKey, def.ID),
		attribute.String(otelhelper.WorkflowNameKey, def.Name),
		attribute.String(otelhelper.OrganizationIDKey, wctx.OrganizationID),
	)
	defer span.End()

	run := &models.WorkflowRun{
		ID:             wctx.ExecutionID,
		WorkflowID:     def.ID,
		OrganizationID: wctx.OrganizationID,
		UserID:         wctx.UserID,
		Status:         models.RunStatusRunning,
		Input:          redactCredentials(models.CloneMap(input), wctx.APIKey()).(map[string]any),
		StartedAt:      e.now().UTC(),
	}

	// Cancellation is tracked before the record becomes visible as running.
	runCtx, cancel, ok := e.track(ctx, run.ID)
	if !ok {
		err := persistence.NewRunError("CreateRun", run.ID, persistence.ErrRunAlreadyExists)
		logger.WarnContext(ctx, "Run is already executing on this engine")
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}

	defer e.untrack(run.ID, cancel)

	err := e.recorder.CreateRun(ctx, run)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create run record", "error", err)
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}

	if e.runTimeout > 0 {
		var cancelTimeout context.CancelFunc

		runCtx, cancelTimeout = context.WithTimeoutCause(runCtx, e.runTimeout,
			fmt.Errorf("%w after %s", ErrRunDeadlineExceeded, e.runTimeout))
		defer cancelTimeout()
	}

	start := time.Now()

	metrics.RunStarted()
	logger.InfoContext(ctx, "Workflow run started", "nodes", len(def.Nodes))

	output, runErr := e.traverse(runCtx, def, wctx, logger)

	status, writeErr := e.finish(ctx, run.ID, redactCredentials(output, wctx.APIKey()), runErr)
	if writeErr != nil {
		logger.ErrorContext(ctx, "Failed to record run result", "status", status, "error", writeErr)
	}

	elapsed := time.Since(start)
	metrics.RunFinished(string(status), elapsed)
	span.SetAttributes(attribute.String(otelhelper.RunStatusKey, string(status)))

	if runErr != nil {
		logger.ErrorContext(ctx, "Workflow run ended", "status", status, "duration", elapsed, "error", runErr)
		otelhelper.SetError(span, runErr)

		return nil, runErr
	}

	if writeErr != nil {
		otelhelper.SetError(span, writeErr)

		return nil, fmt.Errorf("failed to complete run %s: %w", run.ID, writeErr)
	}

	logger.InfoContext(ctx, "Workflow run completed", "duration", elapsed)
	otelhelper.SetOK(span)

	return output, nil
}

// Cancel stops an active run of this engine. It reports whether the run was found.
func (e *Engine) Cancel(executionID string) bool {
	e.mu.Lock()
	cancel, ok := e.running[executionID]
	e.mu.Unlock()

	if !ok {
		return false
	}

	cancel(ErrRunCancelled)
	e.logger.Info("Run cancellation requested", "execution_id", executionID)

	return true
}

// InFlight returns the number of runs currently executing on this engine.
func (e *Engine) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.running)
}

// track registers the run's cancel func. It reports false when the execution id is already active.
func (e *Engine) track(ctx context.Context, executionID string) (context.Context, context.CancelCauseFunc, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.running[executionID]; exists {
		return nil, nil, false
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	e.running[executionID] = cancel

	return runCtx, cancel, true
}

func (e *Engine) untrack(executionID string, cancel context.CancelCauseFunc) {
	e.mu.Lock()
	delete(e.running, executionID)
	e.mu.Unlock()

	cancel(nil)
}

// finish performs the single terminal write of a run. It runs detached from cancellation so a
// cancelled or expired run is still recorded.
func (e *Engine) finish(ctx context.Context, id string, output any, runErr error) (models.RunStatus, error) {
	ctx = context.WithoutCancel(ctx)
	completedAt := e.now().UTC()

	switch {
	case runErr == nil:
		err := e.recorder.CompleteRun(ctx, id, output, completedAt)
		if err == nil || errors.Is(err, persistence.ErrRunAlreadyFinished) {
			return models.RunStatusCompleted, err
		}

		// Close the run as failed when its output cannot be stored.
		e.logger.ErrorContext(ctx, "Failed to record run output", "execution_id", id, "error", err)

		failErr := e.recorder.FailRun(ctx, id, "failed to record output: "+err.Error(), completedAt)
		if failErr != nil {
			return models.RunStatusFailed, errors.Join(err, failErr)
		}

		return models.RunStatusFailed, err
	case errors.Is(runErr, ErrRunCancelled):
		return models.RunStatusCancelled, e.recorder.CancelRun(ctx, id, completedAt)
	default:
		return models.RunStatusFailed, e.recorder.FailRun(ctx, id, runErr.Error(), completedAt)
	}
}

// traverse walks the graph depth-first from the trigger with an explicit stack. Each node's result
// is stored under node_<id> before its successors run, and successors run sequentially in listed order.
func (e *Engine) traverse(ctx context.Context, def *models.WorkflowDefinition, wctx *models.WorkflowContext, logger *slog.Logger) (any, error) {
	type frame struct {
		node       int
		step       *Step
		successors []int
		next       int
	}

	nodes := newArena(def.Nodes)

	root, ok := nodes.trigger()
	if !ok {
		return nil, ErrNoTriggerNode
	}

	evaluators := make(map[models.NodeType]protocol.NodeEvaluator)
	stack := []frame{{node: root}}
	visits := 0

	for {
		top := &stack[len(stack)-1]

		if top.step == nil {
			if ctx.Err() != nil {
				return nil, interruption(ctx)
			}

			visits++
			if visits > e.maxNodeVisits {
				return nil, fmt.Errorf("%w: limit is %d", ErrMaxNodeVisits, e.maxNodeVisits)
			}

			node := nodes.nodes[top.node]

			result, err := e.evaluate(ctx, node, wctx, evaluators, logger)
			if err != nil {
				return nil, err
			}

			wctx.Set(models.ResultKey(node.ID), result)

			successors, missing := nodes.successors(top.node)
			for _, id := range missing {
				logger.WarnContext(ctx, "Skipping unresolved successor", "node_id", node.ID, "next_id", id)
			}

			top.step = &Step{NodeID: node.ID, Result: result}
			top.successors = successors
		}

		if top.next < len(top.successors) {
			child := top.successors[top.next]
			top.next++

			stack = append(stack, frame{node: child})

			continue
		}

		finished := top.step
		stack = stack[:len(stack)-1]

		if len(stack) == 0 {
			return finished.Collapse(), nil
		}

		parent := &stack[len(stack)-1]
		parent.step.Children = append(parent.step.Children, finished)
	}
}

func (e *Engine) evaluate(
	ctx context.Context,
	node *models.WorkflowNode,
	wctx *models.WorkflowContext,
	evaluators map[models.NodeType]protocol.NodeEvaluator,
	logger *slog.Logger,
) (any, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
	)
	defer span.End()

	if node.Type == models.NodeTypeAction {
		span.SetAttributes(attribute.String(otelhelper.ActionTypeKey, string(node.ActionType())))
	}

	evaluator, ok := evaluators[node.Type]
	if !ok {
		var err error

		evaluator, err = e.registry.Evaluator(node.Type)
		if err != nil {
			logger.ErrorContext(ctx, "No evaluator for node", "node_id", node.ID, "node_type", node.Type, "error", err)
			otelhelper.SetError(span, err)

			return nil, err
		}

		evaluators[node.Type] = evaluator
	}

	nodeCtx := ctx

	if e.nodeTimeout > 0 {
		var cancel context.CancelFunc

		nodeCtx, cancel = context.WithTimeoutCause(ctx, e.nodeTimeout,
			fmt.Errorf("%w: node %s after %s", ErrNodeDeadlineExceeded, node.ID, e.nodeTimeout))
		defer cancel()
	}

	logger.DebugContext(ctx, "Evaluating node", "node_id", node.ID, "node_type", node.Type)

	start := time.Now()
	result, err := evaluator.Evaluate(nodeCtx, node, wctx)
	metrics.NodeEvaluated(string(node.Type), err, time.Since(start))

	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = interruption(ctx)
		case nodeCtx.Err() != nil:
			err = context.Cause(nodeCtx)
		}

		logger.ErrorContext(ctx, "Node evaluation failed", "node_id", node.ID, "node_type", node.Type, "error", err)
		otelhelper.SetError(span, err)

		return nil, err
	}

	otelhelper.SetOK(span)

	return result, nil
}

// interruption maps a done run context to its cause. Cancellation from the caller counts as a
// cancelled run, the same as Cancel.
func interruption(ctx context.Context) error {
	cause := context.Cause(ctx)

	if errors.Is(cause, context.Canceled) && !errors.Is(cause, ErrRunCancelled) {
		return fmt.Errorf("%w: %w", ErrRunCancelled, cause)
	}

	return cause
}

// redactCredentials masks the bearer credential wherever a result captured the variables.
func redactCredentials(v any, apiKey string) any {
	if apiKey == "" {
		return v
	}

	switch typed := v.(type) {
	case map[string]any:
		if typed == nil {
			return typed
		}

		out := make(map[string]any, len(typed))
		for k, item := range typed {
			if k == models.APIKeyVariable {
				out[k] = redacted

				continue
			}

			out[k] = redactCredentials(item, apiKey)
		}

		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = redactCredentials(item, apiKey)
		}

		return out
	default:
		return v
	}
}

func mergeVariables(sources ...map[string]any) map[string]any {
	merged := make(map[string]any)

	for _, source := range sources {
		for k, v := range source {
			merged[k] = v
		}
	}

	return merged
}
