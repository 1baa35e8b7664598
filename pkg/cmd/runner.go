package cmd

import (
	"context"
	"log/slog"

	"github.com/aaiaas/automation/pkg/eventbus"
	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/aaiaas/automation/pkg/registry"
	"github.com/aaiaas/automation/pkg/services"
	"github.com/aaiaas/automation/pkg/workflow"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

// NewEngine builds the workflow engine configured by the runner flags.
func NewEngine(
	command *cli.Command,
	logger *slog.Logger,
	tracer trace.Tracer,
	reg *registry.Registry,
	recorder persistence.RunRecorder,
) *workflow.Engine {
	return workflow.NewEngine(reg, recorder, logger, tracer,
		workflow.WithRunTimeout(command.Duration("run-timeout")),
		workflow.WithNodeTimeout(command.Duration("node-timeout")),
		workflow.WithMaxNodeVisits(command.Int("max-node-visits")),
	)
}

// StartRunner starts consuming execution requests from the bus.
func StartRunner(
	ctx context.Context,
	command *cli.Command,
	logger *slog.Logger,
	engine *workflow.Engine,
	workflows persistence.WorkflowRepository,
	bus eventbus.EventBus,
) (*services.Runner, error) {
	runner := services.NewRunner(engine, workflows, bus, logger, command.Int("max-concurrent-runs"))

	err := runner.Start(ctx)
	if err != nil {
		return nil, err
	}

	return runner, nil
}
