package httprequest

import (
	"log/slog"
	"net/http"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ActionFactory creates HTTP request actions sharing one instrumented client.
type ActionFactory struct {
	client *http.Client
	logger *slog.Logger
}

// NewActionFactory creates a factory; a nil client gets an OpenTelemetry instrumented default.
func NewActionFactory(client *http.Client, logger *slog.Logger) *ActionFactory {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	return &ActionFactory{client: client, logger: logger}
}

func (f *ActionFactory) Create() (protocol.Action, error) {
	return NewAction(f.client, f.logger), nil
}

func (f *ActionFactory) ID() models.ActionType {
	return models.ActionTypeHTTPRequest
}

func (f *ActionFactory) Name() string {
	return "HTTP Request"
}

func (f *ActionFactory) Description() string {
	return "Performs an HTTP request to a specified URL with optional headers and body."
}

// Schema returns the JSON schema for configuring this action.
func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"title":       "URL",
				"type":        "string",
				"description": "The URL to send the HTTP request to. Supports {{variable}} interpolation.",
				"minLength":   1,
				"examples": []string{
					"https://api.example.com/users",
					"https://api.example.com/users/{{node_lookup.id}}",
				},
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method to use (GET, POST, PUT, DELETE, etc.)",
				"default":     "GET",
				"enum":        []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "HTTP headers to include in the request. Values support interpolation.",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
			"body": map[string]any{
				"description": "Request body. Strings are sent verbatim, other values as JSON.",
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Request timeout in seconds",
				"default":     30,  //nolint:mnd // schema default
				"minimum":     1,
				"maximum":     300, //nolint:mnd // schema bound
			},
			"retries": map[string]any{
				"type":        "object",
				"description": "Retry configuration for network failures and 5xx responses",
				"properties": map[string]any{
					"attempts": map[string]any{
						"type":        "integer",
						"description": "Number of retry attempts on failure",
						"default":     0,
						"minimum":     0,
						"maximum":     5, //nolint:mnd // schema bound
					},
					"delay": map[string]any{
						"type":        "integer",
						"description": "Initial delay between retry attempts in milliseconds",
						"default":     1000,  //nolint:mnd // schema default
						"minimum":     0,
						"maximum":     30000, //nolint:mnd // schema bound
					},
				},
			},
		},
		"required":             []string{"url"},
		"additionalProperties": false,
	}
}
