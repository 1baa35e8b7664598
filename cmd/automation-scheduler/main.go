// Package main provides the process that triggers workflows on their cron schedules.
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

func main() {
	flags := []cli.Flag{
		cmd.DatabaseURLFlag(),
		cmd.LogLevelFlag(),
	}

	flags = slices.Concat(flags, cmd.EventBusFlags("kafka"), cmd.RateLimitFlags(), cmd.SchedulerFlags())

	command := &cli.Command{
		Name:                  "automation-scheduler",
		EnableShellCompletion: true,
		Usage:                 "Trigger scheduled workflows",
		Flags:                 flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Setup(command.String("log-level"))

			logger := log.WithModule("automation-scheduler")

			logger.InfoContext(ctx, "Initializing automation scheduler")

			tracer, shutdownTracer, err := otelhelper.NewTracer(ctx, "automation-scheduler")
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

			executions := services.NewExecution(persistence, persistence, eventBus, limiter, logger)

			return scheduler.New(persistence, executions, logger).Run(ctx, command.Duration("schedule-sync-interval"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		log.WithModule("automation-scheduler").Error("Scheduler stopped", "error", err)
		os.Exit(1)
	}
}
