// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aaiaas/automation/pkg/aiclient"
	"github.com/aaiaas/automation/pkg/registry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRegistry registers the built-in node types and actions. AI actions are only available
// when an AI service URL is configured.
func NewRegistry(log *slog.Logger, aiServiceURL string) (*registry.Registry, error) {
	reg := registry.New(log)

	deps := registry.Dependencies{
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Logger:     log,
	}

	if aiServiceURL != "" {
		client, err := aiclient.New(aiServiceURL,
			aiclient.WithLogger(log),
			aiclient.WithRetry(3, 500*time.Millisecond),
		)
		if err != nil {
			return nil, err
		}

		deps.AI = client
	}

	reg.RegisterDefaults(deps)

	return reg, nil
}
