package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestWorkflowError(t *testing.T) {
	t.Parallel()

	err := persistence.NewWorkflowError("WorkflowByID", "wf-1", persistence.ErrWorkflowNotFound)

	assert.Equal(t, "WorkflowByID operation failed for workflow wf-1: workflow not found", err.Error())
	assert.True(t, persistence.IsWorkflowNotFound(err))
	assert.True(t, persistence.IsWorkflowNotFound(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, persistence.IsRunNotFound(err))
	assert.Equal(t, persistence.ErrWorkflowNotFound, errors.Unwrap(err))
}

func TestRunError(t *testing.T) {
	t.Parallel()

	err := persistence.NewRunError("CompleteRun", "exec-1", persistence.ErrRunAlreadyFinished)

	assert.Equal(t, "CompleteRun operation failed for run exec-1: run already finished", err.Error())
	assert.ErrorIs(t, err, persistence.ErrRunAlreadyFinished)
	assert.False(t, persistence.IsRunNotFound(err))
	assert.True(t, persistence.IsRunNotFound(persistence.NewRunError("RunByID", "x", persistence.ErrRunNotFound)))
}
