package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/aaiaas/automation/pkg/aiclient"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
)

var ErrNoMessages = errors.New("chat requires at least one message")

type ChatAction struct {
	client Client
}

func NewChatAction(client Client) *ChatAction {
	return &ChatAction{client: client}
}

func (a *ChatAction) Execute(ctx context.Context, config map[string]any, wctx *models.WorkflowContext) (any, error) {
	var cfg models.ChatConfig

	err := resolve(config, wctx, &cfg)
	if err != nil {
		return nil, err
	}

	if len(cfg.Messages) == 0 {
		return nil, ErrNoMessages
	}

	key, err := apiKey(wctx)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Chat(ctx, key, aiclient.ChatRequest{
		Messages:    cfg.Messages,
		Model:       orDefault(cfg.Model, models.DefaultChatModel),
		Temperature: temperature(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	return models.ToMap(resp)
}

type ChatActionFactory struct {
	client Client
}

func NewChatActionFactory(client Client) *ChatActionFactory {
	return &ChatActionFactory{client: client}
}

func (f *ChatActionFactory) Create() (protocol.Action, error) {
	return NewChatAction(f.client), nil
}

func (f *ChatActionFactory) ID() models.ActionType {
	return models.ActionTypeAIChat
}

func (f *ChatActionFactory) Name() string {
	return "AI Chat"
}

func (f *ChatActionFactory) Description() string {
	return "Sends a conversation to the AI backend and returns the assistant message."
}

func (f *ChatActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"messages": map[string]any{
				"type":        "array",
				"description": "Conversation messages. Content supports {{variable}} interpolation.",
				"minItems":    1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"role": map[string]any{
							"type": "string",
							"enum": []string{"system", "user", "assistant"},
						},
						"content": map[string]any{"type": "string"},
					},
					"required": []string{"role", "content"},
				},
			},
			"model":       modelSchema(models.DefaultChatModel),
			"temperature": temperatureSchema(),
			"maxTokens":   maxTokensSchema(),
		},
		"required": []string{"messages"},
	}
}
