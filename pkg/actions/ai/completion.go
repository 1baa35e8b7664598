package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/aaiaas/automation/pkg/aiclient"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
)

var ErrEmptyPrompt = errors.New("completion requires a prompt")

type CompletionAction struct {
	client Client
}

func NewCompletionAction(client Client) *CompletionAction {
	return &CompletionAction{client: client}
}

func (a *CompletionAction) Execute(ctx context.Context, config map[string]any, wctx *models.WorkflowContext) (any, error) {
	var cfg models.CompletionConfig

	err := resolve(config, wctx, &cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Prompt == "" {
		return nil, ErrEmptyPrompt
	}

	key, err := apiKey(wctx)
	if err != nil {
		return nil, err
	}

	maxTokens := models.DefaultCompletionMaxTokens
	if cfg.MaxTokens != nil {
		maxTokens = *cfg.MaxTokens
	}

	resp, err := a.client.Completion(ctx, key, aiclient.CompletionRequest{
		Prompt:      cfg.Prompt,
		Model:       orDefault(cfg.Model, models.DefaultChatModel),
		Temperature: temperature(cfg.Temperature),
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	return models.ToMap(resp)
}

type CompletionActionFactory struct {
	client Client
}

func NewCompletionActionFactory(client Client) *CompletionActionFactory {
	return &CompletionActionFactory{client: client}
}

func (f *CompletionActionFactory) Create() (protocol.Action, error) {
	return NewCompletionAction(f.client), nil
}

func (f *CompletionActionFactory) ID() models.ActionType {
	return models.ActionTypeAICompletion
}

func (f *CompletionActionFactory) Name() string {
	return "AI Completion"
}

func (f *CompletionActionFactory) Description() string {
	return "Completes a prompt with the AI backend and returns the generated text."
}

func (f *CompletionActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "Prompt text. Supports {{variable}} interpolation.",
				"minLength":   1,
			},
			"model":       modelSchema(models.DefaultChatModel),
			"temperature": temperatureSchema(),
			"maxTokens":   maxTokensSchema(),
		},
		"required": []string{"prompt"},
	}
}
