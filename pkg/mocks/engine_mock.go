package mocks

import (
	"context"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/ratelimit"
	"github.com/stretchr/testify/mock"
)

// MockExecutor is a mock implementation of services.Executor interface.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) ExecuteWorkflow(
	ctx context.Context,
	def *models.WorkflowDefinition,
	wctx *models.WorkflowContext,
	input map[string]any,
) (any, error) {
	args := m.Called(ctx, def, wctx, input)

	return args.Get(0), args.Error(1)
}

func (m *MockExecutor) Cancel(executionID string) bool {
	args := m.Called(executionID)

	return args.Bool(0)
}

// MockLimiter is a mock implementation of ratelimit.Limiter interface.
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, organizationID string) (ratelimit.Decision, error) {
	args := m.Called(ctx, organizationID)

	return args.Get(0).(ratelimit.Decision), args.Error(1)
}

func (m *MockLimiter) Close() error {
	args := m.Called()

	return args.Error(0)
}
