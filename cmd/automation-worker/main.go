// Package main provides the runner process that executes workflows requested through Kafka.
package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/aaiaas/automation/pkg/cmd"
	"github.com/aaiaas/automation/pkg/log"
	"github.com/aaiaas/automation/pkg/otelhelper"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func main() {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "worker-id",
			Aliases: []string{"id"},
			Usage:   "Custom worker ID (auto-generated if not provided)",
			Value:   "",
			Sources: cli.EnvVars("WORKER_ID"),
		},
		cmd.DatabaseURLFlag(),
		cmd.LogLevelFlag(),
	}

	flags = slices.Concat(flags, cmd.EventBusFlags("kafka"), cmd.RunnerFlags())

	command := &cli.Command{
		Name:                  "automation-worker",
		EnableShellCompletion: true,
		Usage:                 "Execute requested workflow runs",
		Flags:                 flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("automation-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing automation worker")

			tracer, shutdownTracer, err := otelhelper.NewTracer(ctx, "automation-worker")
			if err != nil {
				return err
			}

			defer func() {
				err := shutdownTracer(context.WithoutCancel(ctx))
				if err != nil {
					logger.ErrorContext(ctx, "Failed to shut down tracer", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(context.WithoutCancel(ctx))
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			registry, err := cmd.NewRegistry(logger, command.String("ai-service-url"))
			if err != nil {
				return err
			}

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.StringSlice("kafka-brokers"), logger, tracer)
			if err != nil {
				return err
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			engine := cmd.NewEngine(command, logger, tracer, registry, persistence)

			runner, err := cmd.StartRunner(ctx, command, logger, engine, persistence, eventBus)
			if err != nil {
				return err
			}

			<-ctx.Done()

			logger.Info("Shutting down, waiting for active runs", "active_runs", engine.InFlight())
			runner.Wait()

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		log.WithModule("automation-worker").Error("Worker stopped", "error", err)
		os.Exit(1)
	}
}
