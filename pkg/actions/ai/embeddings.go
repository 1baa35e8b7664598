package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/aaiaas/automation/pkg/aiclient"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
)

var ErrInvalidEmbeddingsInput = errors.New("embeddings input must be a string or a list of strings")

type EmbeddingsAction struct {
	client Client
}

func NewEmbeddingsAction(client Client) *EmbeddingsAction {
	return &EmbeddingsAction{client: client}
}

func (a *EmbeddingsAction) Execute(ctx context.Context, config map[string]any, wctx *models.WorkflowContext) (any, error) {
	var cfg models.EmbeddingsConfig

	err := resolve(config, wctx, &cfg)
	if err != nil {
		return nil, err
	}

	input, err := embeddingsInput(cfg.Input)
	if err != nil {
		return nil, err
	}

	key, err := apiKey(wctx)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Embeddings(ctx, key, aiclient.EmbeddingsRequest{
		Input: input,
		Model: orDefault(cfg.Model, models.DefaultEmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}

	return models.ToMap(resp)
}

func embeddingsInput(v any) (any, error) {
	switch input := v.(type) {
	case string:
		return input, nil
	case []any:
		texts := make([]string, 0, len(input))

		for _, item := range input {
			text, ok := item.(string)
			if !ok {
				return nil, ErrInvalidEmbeddingsInput
			}

			texts = append(texts, text)
		}

		return texts, nil
	default:
		return nil, ErrInvalidEmbeddingsInput
	}
}

type EmbeddingsActionFactory struct {
	client Client
}

func NewEmbeddingsActionFactory(client Client) *EmbeddingsActionFactory {
	return &EmbeddingsActionFactory{client: client}
}

func (f *EmbeddingsActionFactory) Create() (protocol.Action, error) {
	return NewEmbeddingsAction(f.client), nil
}

func (f *EmbeddingsActionFactory) ID() models.ActionType {
	return models.ActionTypeAIEmbeddings
}

func (f *EmbeddingsActionFactory) Name() string {
	return "AI Embeddings"
}

func (f *EmbeddingsActionFactory) Description() string {
	return "Computes embedding vectors for one or more texts."
}

func (f *EmbeddingsActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{
				"description": "Text or list of texts to embed. Supports {{variable}} interpolation.",
				"oneOf": []any{
					map[string]any{"type": "string"},
					map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
			},
			"model": modelSchema(models.DefaultEmbeddingModel),
		},
		"required": []string{"input"},
	}
}
