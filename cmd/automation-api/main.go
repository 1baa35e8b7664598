// Package main provides the automation API server.
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
	"github.com/aaiaas/automation/pkg/scheduler"
	"github.com/aaiaas/automation/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		cmd.DatabaseURLFlag(),
		cmd.LogLevelFlag(),
	}

	flags = slices.Concat(flags,
		cmd.EventBusFlags("memory"),
		cmd.RunnerFlags(),
		cmd.RateLimitFlags(),
		cmd.SchedulerFlags(),
	)

	command := &cli.Command{
		Name:                  "automation-api",
		Usage:                 "Manage workflows and trigger executions",
		EnableShellCompletion: true,
		Flags:                 flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing automation API")

			tracer, shutdownTracer, err := otelhelper.NewTracer(ctx, "automation-api")
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

			engine := cmd.NewEngine(command, logger, tracer, registry, persistence)

			eventBusType := command.String("event-bus")

			eventBus, err := cmd.NewEventBus(eventBusType, command.StringSlice("kafka-brokers"), logger, tracer)
			if err != nil {
				return err
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			limiter, err := cmd.NewRateLimiter(ctx, logger, command.String("redis-url"),
				command.Int("rate-limit-requests"), command.Duration("rate-limit-window"))
			if err != nil {
				return err
			}

			defer func() {
				err := limiter.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close rate limiter", "error", err)
				}
			}()

			// The in-process bus only reaches this process, so it also hosts the runner and the scheduler.
			if eventBusType == "memory" {
				runner, err := cmd.StartRunner(ctx, command, logger, engine, persistence, eventBus)
				if err != nil {
					return err
				}

				defer runner.Wait()

				executions := services.NewExecution(persistence, persistence, eventBus, limiter, logger)
				sched := scheduler.New(persistence, executions, logger)

				go func() {
					err := sched.Run(ctx, command.Duration("schedule-sync-interval"))
					if err != nil {
						logger.ErrorContext(ctx, "Scheduler stopped", "error", err)
					}
				}()
			}

			api := NewAPI(logger, persistence, registry, engine, eventBus, limiter)

			return api.Start(ctx, command.Int("port"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		log.WithModule("api").Error("API stopped", "error", err)
		os.Exit(1)
	}
}
