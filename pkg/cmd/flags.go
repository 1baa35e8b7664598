package cmd

import (
	"time"

	"github.com/aaiaas/automation/pkg/ratelimit"
	"github.com/aaiaas/automation/pkg/services"
	"github.com/aaiaas/automation/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

// Flags shared by the automation binaries.

func LogLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Value:   "info",
		Sources: cli.EnvVars("LOG_LEVEL"),
	}
}

func DatabaseURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "database-url",
		Usage:    "Database connection URL for persistence (postgres://... or file://<dir>)",
		Required: true,
		Sources:  cli.EnvVars("DATABASE_URL"),
	}
}

func EventBusFlags(defaultProvider string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (memory, kafka)",
			Value:   defaultProvider,
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringSliceFlag{
			Name:    "kafka-brokers",
			Usage:   "Kafka broker addresses, comma separated",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
	}
}

func RunnerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "ai-service-url",
			Usage:   "Base URL of the AI service; ai_* actions are disabled when empty",
			Sources: cli.EnvVars("AI_SERVICE_URL"),
		},
		&cli.DurationFlag{
			Name:    "run-timeout",
			Usage:   "Maximum duration of a workflow run (0 disables)",
			Value:   10 * time.Minute,
			Sources: cli.EnvVars("RUN_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:    "node-timeout",
			Usage:   "Maximum duration of a single node evaluation (0 disables)",
			Value:   2 * time.Minute,
			Sources: cli.EnvVars("NODE_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:    "max-concurrent-runs",
			Usage:   "Runs executed at once by this process",
			Value:   services.DefaultMaxConcurrentRuns,
			Sources: cli.EnvVars("MAX_CONCURRENT_RUNS"),
		},
		&cli.IntFlag{
			Name:    "max-node-visits",
			Usage:   "Node evaluations allowed per run",
			Value:   workflow.DefaultMaxNodeVisits,
			Sources: cli.EnvVars("MAX_NODE_VISITS"),
		},
	}
}

func RateLimitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for execution rate limiting; disabled when empty",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.IntFlag{
			Name:    "rate-limit-requests",
			Usage:   "Executions an organization may trigger per window",
			Value:   ratelimit.DefaultLimit,
			Sources: cli.EnvVars("RATE_LIMIT_REQUESTS"),
		},
		&cli.DurationFlag{
			Name:    "rate-limit-window",
			Usage:   "Rate limit window",
			Value:   ratelimit.DefaultWindow,
			Sources: cli.EnvVars("RATE_LIMIT_WINDOW"),
		},
	}
}

func SchedulerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "schedule-sync-interval",
			Usage:   "How often scheduled workflows are reloaded",
			Value:   time.Minute,
			Sources: cli.EnvVars("SCHEDULE_SYNC_INTERVAL"),
		},
	}
}
