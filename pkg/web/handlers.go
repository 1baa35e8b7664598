// Package web provides the HTTP handlers of the workflow and execution API.
package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aaiaas/automation/pkg/registry"
	"github.com/aaiaas/automation/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const (
	// OrganizationHeader and UserHeader carry the caller identity resolved by the gateway.
	OrganizationHeader = "X-Organization-ID"
	UserHeader         = "X-User-ID"

	timeFormat = time.RFC3339Nano
)

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type APIHandlers struct {
	workflowService  *services.Workflow
	executionService *services.Execution
	validator        *validator.Validate
	registry         *registry.Registry
	persistence      HealthChecker
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	executionService *services.Execution,
	validator *validator.Validate,
	registry *registry.Registry,
	persistence HealthChecker,
) *APIHandlers {
	return &APIHandlers{
		workflowService:  workflowService,
		executionService: executionService,
		validator:        validator,
		registry:         registry,
		persistence:      persistence,
	}
}

// RequireOrganization rejects requests without a tenant.
func (h *APIHandlers) RequireOrganization(c fiber.Ctx) error {
	if strings.TrimSpace(c.Get(OrganizationHeader)) == "" {
		return unauthorized(c, OrganizationHeader+" header is required")
	}

	return c.Next()
}

func organization(c fiber.Ctx) string {
	return strings.TrimSpace(c.Get(OrganizationHeader))
}

// bearerToken returns the credential of an "Authorization: Bearer" header.
func bearerToken(c fiber.Ctx) string {
	scheme, token, found := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context(), organization(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.FetchByID(c.Context(), organization(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req WorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.Create(c.Context(), organization(c), req.definition())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req WorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.Update(c.Context(), organization(c), c.Params("id"), req.definition())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflowService.Delete(c.Context(), organization(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	limit := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}

		limit = parsed
	}

	runs, err := h.executionService.ListByWorkflow(c.Context(), organization(c), c.Params("id"), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	response := make([]ExecutionResponse, 0, len(runs))
	for _, run := range runs {
		response = append(response, toExecutionResponse(run))
	}

	return c.JSON(response)
}

// TriggerExecution accepts an execution request and answers before the run starts.
func (h *APIHandlers) TriggerExecution(c fiber.Ctx) error {
	var req TriggerExecutionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.executionService.Trigger(c.Context(), services.TriggerRequest{
		WorkflowID:     req.WorkflowID,
		OrganizationID: organization(c),
		UserID:         c.Get(UserHeader),
		Input:          req.Input,
		APIKey:         bearerToken(c),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	run, err := h.executionService.Status(c.Context(), organization(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(toExecutionResponse(run))
}

func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	err := h.executionService.Cancel(c.Context(), organization(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"executionId": c.Params("id"),
		"status":      "cancelling",
	})
}

// GetActions lists the registered action kinds with their configuration schemas.
func (h *APIHandlers) GetActions(c fiber.Ctx) error {
	factories := h.registry.ActionFactories()

	entries := make([]CatalogEntry, 0, len(factories))
	for _, factory := range factories {
		entries = append(entries, CatalogEntry{
			ID:          string(factory.ID()),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return c.JSON(entries)
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	factories := h.registry.NodeFactories()

	entries := make([]CatalogEntry, 0, len(factories))
	for _, factory := range factories {
		entries = append(entries, CatalogEntry{
			ID:          string(factory.ID()),
			Name:        factory.Name(),
			Description: factory.Description(),
		})
	}

	return c.JSON(entries)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	checkers := fiber.Map{}
	healthy := true

	for name, checker := range map[string]HealthChecker{"registry": h.registry, "persistence": h.persistence} {
		err := checker.HealthCheck(c.Context())
		if err != nil {
			healthy = false
			checkers[name] = err.Error()

			continue
		}

		checkers[name] = "ok"
	}

	status := "unhealthy"
	message := "Automation API is unhealthy"
	httpStatus := http.StatusServiceUnavailable

	if healthy {
		status = "healthy"
		message = "Automation API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"checkers":  checkers,
		"timestamp": time.Now().UTC(),
	})
}

// Ready reports whether every dependency is healthy, for readiness probes.
func (h *APIHandlers) Ready(c fiber.Ctx) bool {
	return h.registry.HealthCheck(c.Context()) == nil && h.persistence.HealthCheck(c.Context()) == nil
}
