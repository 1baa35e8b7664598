package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/aaiaas/automation/pkg/channels/gochannel"
	"github.com/aaiaas/automation/pkg/channels/kafka"
	"github.com/aaiaas/automation/pkg/eventbus"
	"github.com/aaiaas/automation/pkg/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const consumerGroup = "automation"

// NewEventBus builds the execution event bus. Cancellation requests always travel through a
// dedicated subscriber; on Kafka it has its own consumer group so every runner sees every cancel.
func NewEventBus(provider string, brokers []string, logger *slog.Logger, tracer trace.Tracer) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "memory", "":
		pubSub := gochannel.CreateChannel(wmLogger, gochannel.DefaultBufferSize)

		return eventbus.NewWatermillEventBus(logger, tracer, pubSub, pubSub,
			eventbus.WithDedicatedSubscriber(events.ExecutionCancelRequestedEvent, pubSub)), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, brokers, consumerGroup)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		broadcast, err := kafka.CreateBroadcastSubscriber(wmLogger, brokers, instanceID())
		if err != nil {
			_ = pub.Close()
			_ = sub.Close()

			return nil, fmt.Errorf("failed to create Kafka cancellation subscriber: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, tracer, pub, sub,
			eventbus.WithDedicatedSubscriber(events.ExecutionCancelRequestedEvent, broadcast)), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider %q", provider)
	}
}

func instanceID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "runner"
	}

	return hostname + "-" + uuid.NewString()[:8]
}
