// Package scheduler triggers workflows whose trigger node carries a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/aaiaas/automation/pkg/services"
	"github.com/robfig/cron/v3"
)

// DefaultSyncInterval is how often Run reloads the workflow definitions.
const DefaultSyncInterval = time.Minute

// Triggerer starts an execution. It is satisfied by services.Execution.
type Triggerer interface {
	Trigger(ctx context.Context, req services.TriggerRequest) (*services.TriggerResponse, error)
}

type scheduled struct {
	entryID     cron.EntryID
	fingerprint string
}

type Scheduler struct {
	workflows persistence.WorkflowRepository
	triggerer Triggerer
	logger    *slog.Logger
	cron      *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]scheduled
}

func New(workflows persistence.WorkflowRepository, triggerer Triggerer, logger *slog.Logger) *Scheduler {
	logger = logger.With("module", "scheduler")
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))

	return &Scheduler{
		workflows: workflows,
		triggerer: triggerer,
		logger:    logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		)),
		ctx:     context.Background(),
		entries: make(map[string]scheduled),
	}
}

// Start begins firing registered entries. Triggers issued by the entries use ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started")
}

// Stop halts the cron loop and waits for running triggers to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Run starts the scheduler and syncs it with the stored workflows every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	s.Start(ctx)
	defer s.Stop()

	err := s.Sync(ctx)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := s.Sync(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "Failed to sync schedules", "error", err)
			}
		}
	}
}

// Sync registers an entry for every scheduled workflow, replaces entries whose schedule, owner
// or input changed and removes entries of workflows that are gone or no longer scheduled.
func (s *Scheduler) Sync(ctx context.Context) error {
	workflows, err := s.workflows.Workflows(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load workflows: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(workflows))

	for _, def := range workflows {
		trigger, ok := def.TriggerNode()
		if !ok {
			continue
		}

		expr, ok := trigger.Schedule()
		if !ok {
			continue
		}

		input := trigger.ScheduleInput()
		fingerprint := fmt.Sprintf("%s|%s|%v", expr, def.OrganizationID, input)

		seen[def.ID] = struct{}{}

		current, exists := s.entries[def.ID]
		if exists && current.fingerprint == fingerprint {
			continue
		}

		if exists {
			s.cron.Remove(current.entryID)
			delete(s.entries, def.ID)
		}

		schedule, err := models.ParseSchedule(expr)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping workflow with invalid schedule",
				"workflow_id", def.ID, "schedule", expr, "error", err)

			continue
		}

		entryID := s.cron.Schedule(schedule, s.job(def.ID, def.OrganizationID, expr, input))
		s.entries[def.ID] = scheduled{entryID: entryID, fingerprint: fingerprint}

		s.logger.InfoContext(ctx, "Scheduled workflow",
			"workflow_id", def.ID, "schedule", expr, "next_run", s.cron.Entry(entryID).Next)
	}

	for id, entry := range s.entries {
		if _, ok := seen[id]; !ok {
			s.cron.Remove(entry.entryID)
			delete(s.entries, id)

			s.logger.InfoContext(ctx, "Unscheduled workflow", "workflow_id", id)
		}
	}

	return nil
}

// Scheduled returns the number of registered entries.
func (s *Scheduler) Scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func (s *Scheduler) job(workflowID, organizationID, expr string, input map[string]any) cron.FuncJob {
	return func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		logger := s.logger.With("workflow_id", workflowID, "schedule", expr)

		resp, err := s.triggerer.Trigger(ctx, services.TriggerRequest{
			WorkflowID:     workflowID,
			OrganizationID: organizationID,
			Input:          models.CloneMap(input),
		})
		if err != nil {
			logger.WarnContext(ctx, "Scheduled trigger failed", "error", err)

			return
		}

		logger.InfoContext(ctx, "Scheduled trigger fired", "execution_id", resp.ExecutionID)
	}
}
