package models

import (
	"encoding/json"
	"fmt"
)

// ActionType discriminates the behavior of an action node.
type ActionType string

const (
	ActionTypeAIChat       ActionType = "ai_chat"
	ActionTypeAICompletion ActionType = "ai_completion"
	ActionTypeAIEmbeddings ActionType = "ai_embeddings"
	ActionTypeHTTPRequest  ActionType = "http_request"
	ActionTypeDelay        ActionType = "delay"
)

func ActionTypes() []ActionType {
	return []ActionType{
		ActionTypeAIChat,
		ActionTypeAICompletion,
		ActionTypeAIEmbeddings,
		ActionTypeHTTPRequest,
		ActionTypeDelay,
	}
}

// Defaults applied when an AI action omits them.
const (
	DefaultChatModel           = "gpt-4.1-mini"
	DefaultEmbeddingModel      = "text-embedding-ada-002"
	DefaultTemperature         = 0.7
	DefaultCompletionMaxTokens = 500
	DefaultDelayMilliseconds   = 1000
	DefaultHTTPMethod          = "GET"
	DefaultHTTPTimeoutSeconds  = 30
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	Messages    []ChatMessage `json:"messages"`
	Model       string        `json:"model"`
	Temperature *float64      `json:"temperature"`
	MaxTokens   *int          `json:"maxTokens"`
}

type CompletionConfig struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"maxTokens"`
}

type EmbeddingsConfig struct {
	// Input is either a string or a list of strings.
	Input any    `json:"input"`
	Model string `json:"model"`
}

type HTTPRetryConfig struct {
	Attempts int `json:"attempts"`
	Delay    int `json:"delay"` // milliseconds
}

type HTTPRequestConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    any               `json:"body"`
	Timeout int               `json:"timeout"` // seconds
	Retries HTTPRetryConfig   `json:"retries"`
}

type DelayConfig struct {
	Duration *int `json:"duration"` // milliseconds
}

// DecodeConfig converts an untyped configuration map into a typed struct.
func DecodeConfig(raw map[string]any, out any) error {
	if raw == nil {
		raw = map[string]any{}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// ToMap converts a typed value into its JSON object form.
func ToMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out map[string]any

	err = json.Unmarshal(data, &out)
	if err != nil {
		return nil, err
	}

	return out, nil
}
