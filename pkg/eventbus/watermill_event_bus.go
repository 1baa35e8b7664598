package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aaiaas/automation/pkg/events"
	"github.com/aaiaas/automation/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var ErrHandlerAlreadyRegistered = errors.New("handler already registered")

type WatermillEventBus struct {
	logger     *slog.Logger
	tracer     trace.Tracer
	publisher  message.Publisher
	subscriber message.Subscriber
	dedicated  map[events.EventType]message.Subscriber

	mu       sync.RWMutex
	handlers map[events.EventType]EventHandler
}

type Option func(*WatermillEventBus)

// WithDedicatedSubscriber consumes one event type through its own subscriber, so its messages are
// never queued behind slow handlers of other types. A subscriber outside the shared consumer group
// turns the event type into a broadcast.
func WithDedicatedSubscriber(eventType events.EventType, sub message.Subscriber) Option {
	return func(eb *WatermillEventBus) {
		eb.dedicated[eventType] = sub
	}
}

func NewWatermillEventBus(
	logger *slog.Logger,
	tracer trace.Tracer,
	pub message.Publisher,
	sub message.Subscriber,
	opts ...Option,
) *WatermillEventBus {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	eb := &WatermillEventBus{
		logger:     logger.With("module", "eventbus"),
		tracer:     tracer,
		publisher:  pub,
		subscriber: sub,
		dedicated:  make(map[events.EventType]message.Subscriber),
		handlers:   make(map[events.EventType]EventHandler),
	}

	for _, opt := range opts {
		opt(eb)
	}

	return eb
}

// Publish marshals the event to JSON and sends it on the executions topic. The key becomes the
// partition key and the trace context travels in the message metadata.
func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.GetType(), err)
	}

	msg := message.NewMessage(watermill.NewULID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	for k, v := range carrier {
		msg.Metadata.Set(k, v)
	}

	eb.logger.DebugContext(ctx, "Publishing event", "key", key, "event_type", event.GetType())

	err = eb.publisher.Publish(events.Topic, msg)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.GetType(), err)
	}

	return nil
}

// Subscribe starts consuming the executions topic until ctx is done. Each subscriber handles its
// messages one at a time; a handler error nacks the message for redelivery, undecodable messages are dropped.
func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	shared := func(eventType events.EventType) bool {
		_, ok := eb.dedicated[eventType]

		return !ok
	}

	err := eb.consume(ctx, eb.subscriber, shared)
	if err != nil {
		return err
	}

	for eventType, sub := range eb.dedicated {
		if _, handled := eb.handlers[eventType]; !handled {
			continue
		}

		err := eb.consume(ctx, sub, func(t events.EventType) bool { return t == eventType })
		if err != nil {
			return err
		}
	}

	return nil
}

func (eb *WatermillEventBus) consume(ctx context.Context, sub message.Subscriber, accepts func(events.EventType) bool) error {
	messages, err := sub.Subscribe(ctx, events.Topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.Topic, err)
	}

	go func() {
		for msg := range messages {
			eb.dispatch(ctx, msg, accepts)
		}

		eb.logger.InfoContext(ctx, "Event subscription closed")
	}()

	return nil
}

func (eb *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message, accepts func(events.EventType) bool) {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))
	if !accepts(eventType) {
		msg.Ack()

		return
	}

	msgCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))

	msgCtx, span := otelhelper.StartSpan(msgCtx, eb.tracer, "eventbus.consume",
		attribute.String("messaging.message.id", msg.UUID),
		attribute.String("messaging.destination.name", events.Topic),
		attribute.String("event.type", string(eventType)),
	)
	defer span.End()

	eb.mu.RLock()
	handler, exists := eb.handlers[eventType]
	eb.mu.RUnlock()

	if !exists {
		msg.Ack()

		return
	}

	event, ok := events.New(eventType)
	if !ok {
		eb.logger.ErrorContext(msgCtx, "Unknown event type", "event_type", eventType)
		otelhelper.SetError(span, fmt.Errorf("unknown event type %q", eventType))
		msg.Ack()

		return
	}

	err := json.Unmarshal(msg.Payload, event)
	if err != nil {
		eb.logger.ErrorContext(msgCtx, "Failed to unmarshal event", "event_type", eventType, "error", err)
		otelhelper.SetError(span, err)
		msg.Ack()

		return
	}

	err = handler(msgCtx, event)
	if err != nil {
		eb.logger.ErrorContext(msgCtx, "Event handler failed", "event_type", eventType, "error", err)
		otelhelper.SetError(span, err)
		msg.Nack()

		return
	}

	span.AddEvent("event_handled")
	msg.Ack()
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if _, exists := eb.handlers[eventType]; exists {
		return fmt.Errorf("%w: %s", ErrHandlerAlreadyRegistered, eventType)
	}

	eb.handlers[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	errs := []error{eb.publisher.Close(), eb.subscriber.Close()}

	for _, sub := range eb.dedicated {
		errs = append(errs, sub.Close())
	}

	return errors.Join(errs...)
}
