package eventbus_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/aaiaas/automation/pkg/channels/gochannel"
	"github.com/aaiaas/automation/pkg/eventbus"
	"github.com/aaiaas/automation/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pubSub := gochannel.CreateTestChannel(watermill.NewSlogLogger(logger))

	bus := eventbus.NewWatermillEventBus(logger, nil, pubSub, pubSub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	t.Parallel()

	bus := newBus(t)
	received := make(chan *events.ExecutionRequested, 1)

	require.NoError(t, bus.Handle(events.ExecutionRequestedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.ExecutionRequested)

		return nil
	}))

	require.NoError(t, bus.Subscribe(t.Context()))

	require.NoError(t, bus.Publish(t.Context(), "exec-1", events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, "wf-1", "org-1"),
		ExecutionID: "exec-1",
		UserID:      "user-1",
		Input:       map[string]any{"score": float64(15)},
	}))

	select {
	case event := <-received:
		assert.Equal(t, "exec-1", event.ExecutionID)
		assert.Equal(t, "wf-1", event.WorkflowID)
		assert.Equal(t, "org-1", event.OrganizationID)
		assert.Equal(t, map[string]any{"score": float64(15)}, event.Input)
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}

func TestWatermillEventBus_HandlerErrorRedelivers(t *testing.T) {
	t.Parallel()

	bus := newBus(t)

	var calls atomic.Int32

	done := make(chan struct{})

	require.NoError(t, bus.Handle(events.ExecutionCancelRequestedEvent, func(context.Context, any) error {
		if calls.Add(1) == 1 {
			return errors.New("temporarily unavailable")
		}

		close(done)

		return nil
	}))

	require.NoError(t, bus.Subscribe(t.Context()))
	require.NoError(t, bus.Publish(t.Context(), "exec-1", events.ExecutionCancelRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionCancelRequestedEvent, "wf-1", "org-1"),
		ExecutionID: "exec-1",
	}))

	select {
	case <-done:
		assert.Equal(t, int32(2), calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("event not redelivered")
	}
}

func TestWatermillEventBus_Handle_Duplicate(t *testing.T) {
	t.Parallel()

	bus := newBus(t)
	handler := func(context.Context, any) error { return nil }

	require.NoError(t, bus.Handle(events.ExecutionFinishedEvent, handler))
	require.ErrorIs(t, bus.Handle(events.ExecutionFinishedEvent, handler), eventbus.ErrHandlerAlreadyRegistered)
}

func TestWatermillEventBus_DedicatedSubscriber(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pubSub := gochannel.CreateChannel(watermill.NewSlogLogger(logger), 0)

	bus := eventbus.NewWatermillEventBus(logger, nil, pubSub, pubSub,
		eventbus.WithDedicatedSubscriber(events.ExecutionCancelRequestedEvent, pubSub))
	t.Cleanup(func() { _ = bus.Close() })

	release := make(chan struct{})
	cancelled := make(chan string, 1)

	require.NoError(t, bus.Handle(events.ExecutionRequestedEvent, func(context.Context, any) error {
		<-release

		return nil
	}))
	require.NoError(t, bus.Handle(events.ExecutionCancelRequestedEvent, func(_ context.Context, event any) error {
		cancelled <- event.(*events.ExecutionCancelRequested).ExecutionID

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	t.Cleanup(func() { close(release) })

	require.NoError(t, bus.Publish(t.Context(), "exec-1", events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, "wf-1", "org-1"),
		ExecutionID: "exec-1",
	}))
	require.NoError(t, bus.Publish(t.Context(), "exec-1", events.ExecutionCancelRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionCancelRequestedEvent, "wf-1", "org-1"),
		ExecutionID: "exec-1",
	}))

	select {
	case id := <-cancelled:
		assert.Equal(t, "exec-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation was queued behind the blocked request")
	}
}
