package file

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/persistence"
)

func (fp *Persistence) CreateRun(_ context.Context, run *models.WorkflowRun) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	filePath, err := fp.documentPath(runsDir, run.ID)
	if err != nil {
		return persistence.NewRunError("CreateRun", run.ID, err)
	}

	_, err = os.Stat(filePath)
	if err == nil {
		return persistence.NewRunError("CreateRun", run.ID, persistence.ErrRunAlreadyExists)
	}

	err = fp.writeDocument(runsDir, run.ID, run)
	if err != nil {
		return persistence.NewRunError("CreateRun", run.ID, err)
	}

	return nil
}

func (fp *Persistence) CompleteRun(_ context.Context, id string, output any, completedAt time.Time) error {
	return fp.finishRun("CompleteRun", id, func(run *models.WorkflowRun) {
		run.Status = models.RunStatusCompleted
		run.Output = output
		run.CompletedAt = &completedAt
	})
}

func (fp *Persistence) FailRun(_ context.Context, id string, message string, completedAt time.Time) error {
	return fp.finishRun("FailRun", id, func(run *models.WorkflowRun) {
		run.Status = models.RunStatusFailed
		run.Error = message
		run.CompletedAt = &completedAt
	})
}

func (fp *Persistence) CancelRun(_ context.Context, id string, completedAt time.Time) error {
	return fp.finishRun("CancelRun", id, func(run *models.WorkflowRun) {
		run.Status = models.RunStatusCancelled
		run.CompletedAt = &completedAt
	})
}

// finishRun applies a terminal transition to a run that is still running.
func (fp *Persistence) finishRun(op, id string, apply func(run *models.WorkflowRun)) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	var run models.WorkflowRun

	err := fp.readDocument(runsDir, id, &run)
	if err != nil {
		if isNotExist(err) {
			return persistence.NewRunError(op, id, persistence.ErrRunNotFound)
		}

		return persistence.NewRunError(op, id, err)
	}

	if run.Status != models.RunStatusRunning {
		return persistence.NewRunError(op, id, persistence.ErrRunAlreadyFinished)
	}

	apply(&run)

	err = fp.writeDocument(runsDir, id, &run)
	if err != nil {
		return persistence.NewRunError(op, id, err)
	}

	return nil
}

func (fp *Persistence) RunByID(_ context.Context, id string) (*models.WorkflowRun, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	var run models.WorkflowRun

	err := fp.readDocument(runsDir, id, &run)
	if err != nil {
		if isNotExist(err) {
			return nil, persistence.NewRunError("RunByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("RunByID", id, err)
	}

	return &run, nil
}

func (fp *Persistence) RunsByWorkflow(_ context.Context, workflowID string, limit int) ([]*models.WorkflowRun, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	ids, err := fp.documentIDs(runsDir)
	if err != nil {
		return nil, err
	}

	runs := make([]*models.WorkflowRun, 0)

	for _, id := range ids {
		var run models.WorkflowRun

		err := fp.readDocument(runsDir, id, &run)
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", id, err)
		}

		if run.WorkflowID == workflowID {
			runs = append(runs, &run)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}
