package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/aaiaas/automation/pkg/channels/gochannel"
	"github.com/aaiaas/automation/pkg/eventbus"
	"github.com/aaiaas/automation/pkg/events"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/persistence/file"
	"github.com/aaiaas/automation/pkg/ratelimit"
	"github.com/aaiaas/automation/pkg/registry"
	"github.com/aaiaas/automation/pkg/services"
	"github.com/aaiaas/automation/pkg/web"
	"github.com/aaiaas/automation/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persistence := file.NewPersistence(t.TempDir())

	reg := registry.New(logger)
	reg.RegisterDefaults(registry.Dependencies{Logger: logger})

	engine := workflow.NewEngine(reg, persistence, logger, nil)

	pubSub := gochannel.CreateChannel(watermill.NewSlogLogger(logger), 0)
	bus := eventbus.NewWatermillEventBus(logger, nil, pubSub, pubSub,
		eventbus.WithDedicatedSubscriber(events.ExecutionCancelRequestedEvent, pubSub))

	runner := services.NewRunner(engine, persistence, bus, logger, 1)
	require.NoError(t, runner.Start(t.Context()))

	t.Cleanup(func() {
		runner.Wait()
		_ = bus.Close()
	})

	return NewAPI(logger, persistence, reg, engine, bus, ratelimit.Noop{}).App()
}

func request(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(web.OrganizationHeader, "org-1")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, raw
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t)

	resp, body := request(t, app, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Automation API", string(body))
}

func TestAPI_Probes(t *testing.T) {
	app := setupTestApp(t)

	resp, body := request(t, app, http.MethodGet, "/livez", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	resp, _ = request(t, app, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_Metrics(t *testing.T) {
	app := setupTestApp(t)

	resp, body := request(t, app, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestAPI_ExecuteWorkflow(t *testing.T) {
	app := setupTestApp(t)

	resp, body := request(t, app, http.MethodPost, "/workflows", web.WorkflowRequest{
		Name: "Score check",
		Nodes: []*models.WorkflowNode{
			{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"c"}},
			{ID: "c", Type: models.NodeTypeCondition, Config: map[string]any{"condition": "{{score}} > 10"}},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body = request(t, app, http.MethodPost, "/executions", web.TriggerExecutionRequest{
		WorkflowID: created.ID,
		Input:      map[string]any{"score": 5},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

	var accepted services.TriggerResponse
	require.NoError(t, json.Unmarshal(body, &accepted))

	var execution web.ExecutionResponse

	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, body := request(t, app, http.MethodGet, "/executions/"+accepted.ExecutionID, nil)
		if resp.StatusCode == http.StatusOK {
			require.NoError(t, json.Unmarshal(body, &execution))

			if execution.Status.IsTerminal() {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
	}

	assert.Equal(t, models.RunStatusCompleted, execution.Status)
	assert.Equal(t, map[string]any{"conditionMet": false}, execution.Output)
}
