package aiclient

import "github.com/aaiaas/automation/pkg/models"

// Usage holds the token counters reported by the AI backend (prompt_tokens, completion_tokens, total_tokens).
type Usage map[string]int

type ChatRequest struct {
	Messages    []models.ChatMessage `json:"messages"`
	Model       string               `json:"model"`
	Temperature float64              `json:"temperature"`
	MaxTokens   *int                 `json:"max_tokens,omitempty"`
}

type ChatResponse struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Message   models.ChatMessage `json:"message"`
	Usage     Usage              `json:"usage"`
	CreatedAt string             `json:"created_at"`
}

type CompletionRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type CompletionResponse struct {
	ID        string `json:"id"`
	Model     string `json:"model"`
	Text      string `json:"text"`
	Usage     Usage  `json:"usage"`
	CreatedAt string `json:"created_at"`
}

type EmbeddingsRequest struct {
	// Input is a string or a list of strings.
	Input any    `json:"input"`
	Model string `json:"model"`
}

type EmbeddingsResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Model      string      `json:"model"`
	Usage      Usage       `json:"usage"`
}
