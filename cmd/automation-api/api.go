package main

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/aaiaas/automation/pkg/eventbus"
	"github.com/aaiaas/automation/pkg/metrics"
	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/aaiaas/automation/pkg/ratelimit"
	"github.com/aaiaas/automation/pkg/registry"
	"github.com/aaiaas/automation/pkg/services"
	"github.com/aaiaas/automation/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

const shutdownTimeout = 10 * time.Second

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	definitions services.DefinitionValidator
	eventBus    eventbus.EventPublisher
	limiter     ratelimit.Limiter
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	definitions services.DefinitionValidator,
	eventBus eventbus.EventPublisher,
	limiter ratelimit.Limiter,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		definitions: definitions,
		eventBus:    eventBus,
		limiter:     limiter,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, a.definitions)
	executionService := services.NewExecution(a.persistence, a.persistence, a.eventBus, a.limiter, a.logger)

	handlers := web.NewAPIHandlers(workflowService, executionService, a.validate, a.registry, a.persistence)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: handlers.Ready,
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Automation API")
	})

	app.Get("/health", handlers.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Get("/registry/actions", handlers.GetActions)
	app.Get("/registry/nodes", handlers.GetNodeTypes)

	w := app.Group("/workflows", handlers.RequireOrganization)
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)

	e := app.Group("/executions", handlers.RequireOrganization)
	e.Post("/", handlers.TriggerExecution)
	e.Get("/:id", handlers.GetExecution)
	e.Post("/:id/cancel", handlers.CancelExecution)

	return app
}

// Start serves the API until ctx is done, then shuts the server down.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		err := app.ShutdownWithTimeout(shutdownTimeout)
		if err != nil {
			a.logger.Error("Failed to shut down API server", "error", err)
		}
	}()

	return app.Listen(":" + strconv.Itoa(port))
}
