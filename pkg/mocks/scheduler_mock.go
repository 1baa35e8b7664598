package mocks

import (
	"context"

	"github.com/aaiaas/automation/pkg/services"
	"github.com/stretchr/testify/mock"
)

// MockTriggerer is a mock implementation of scheduler.Triggerer interface.
type MockTriggerer struct {
	mock.Mock
}

func (m *MockTriggerer) Trigger(ctx context.Context, req services.TriggerRequest) (*services.TriggerResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*services.TriggerResponse), args.Error(1)
}
