// Package ai provides the AI chat, completion and embeddings actions.
package ai

import (
	"context"

	"github.com/aaiaas/automation/pkg/aiclient"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/template"
)

// Client is the subset of the AI backend the actions call.
type Client interface {
	Chat(ctx context.Context, apiKey string, req aiclient.ChatRequest) (*aiclient.ChatResponse, error)
	Completion(ctx context.Context, apiKey string, req aiclient.CompletionRequest) (*aiclient.CompletionResponse, error)
	Embeddings(ctx context.Context, apiKey string, req aiclient.EmbeddingsRequest) (*aiclient.EmbeddingsResponse, error)
}

// resolve interpolates the action configuration against the run variables and decodes it.
func resolve(config map[string]any, wctx *models.WorkflowContext, out any) error {
	interpolated, _ := template.InterpolateValue(config, wctx.Variables).(map[string]any)

	return models.DecodeConfig(interpolated, out)
}

func apiKey(wctx *models.WorkflowContext) (string, error) {
	key := wctx.APIKey()
	if key == "" {
		return "", aiclient.ErrMissingAPIKey
	}

	return key, nil
}

func temperature(t *float64) float64 {
	if t == nil {
		return models.DefaultTemperature
	}

	return *t
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}

	return s
}
