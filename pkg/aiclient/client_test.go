package aiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aaiaas/automation/pkg/aiclient"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, server *httptest.Server) *aiclient.Client {
	t.Helper()

	client, err := aiclient.New(server.URL+"/", aiclient.WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	return client
}

func TestNew_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := aiclient.New("")
	require.ErrorIs(t, err, aiclient.ErrEmptyBaseURL)
}

func TestClient_Chat(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, aiclient.ChatEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req aiclient.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4.1-mini", req.Model)
		assert.InDelta(t, 0.7, req.Temperature, 0.0001)
		assert.Len(t, req.Messages, 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chat-1","model":"gpt-4.1-mini","message":{"role":"assistant","content":"hi"},` +
			`"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4},"created_at":"2024-01-01T00:00:00"}`))
	}))
	defer server.Close()

	resp, err := newClient(t, server).Chat(context.Background(), "key-123", aiclient.ChatRequest{
		Messages:    []models.ChatMessage{{Role: "user", Content: "hello"}},
		Model:       "gpt-4.1-mini",
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "chat-1", resp.ID)
	assert.Equal(t, "hi", resp.Message.Content)
	assert.Equal(t, 4, resp.Usage["total_tokens"])
}

func TestClient_Completion(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, aiclient.CompletionsEndpoint, r.URL.Path)

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Say hi", req["prompt"])
		assert.InDelta(t, 500, req["max_tokens"], 0.0001)

		_, _ = w.Write([]byte(`{"id":"cmpl-1","model":"gpt-4.1-mini","text":"hi","usage":{"total_tokens":2}}`))
	}))
	defer server.Close()

	resp, err := newClient(t, server).Completion(context.Background(), "key", aiclient.CompletionRequest{
		Prompt:      "Say hi",
		Model:       "gpt-4.1-mini",
		Temperature: 0.7,
		MaxTokens:   500,
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Text)
}

func TestClient_Embeddings(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, aiclient.EmbeddingsEndpoint, r.URL.Path)
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2]],"model":"text-embedding-ada-002","usage":{"prompt_tokens":2}}`))
	}))
	defer server.Close()

	resp, err := newClient(t, server).Embeddings(context.Background(), "key", aiclient.EmbeddingsRequest{
		Input: "hello",
		Model: "text-embedding-ada-002",
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0.2}}, resp.Embeddings)
}

func TestClient_MissingAPIKey(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	_, err := newClient(t, server).Chat(context.Background(), "", aiclient.ChatRequest{})
	require.ErrorIs(t, err, aiclient.ErrMissingAPIKey)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		_, _ = w.Write([]byte(`{"id":"cmpl-2","text":"ok"}`))
	}))
	defer server.Close()

	resp, err := newClient(t, server).Completion(context.Background(), "key", aiclient.CompletionRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RetriesTooManyRequestsUntilExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newClient(t, server).Completion(context.Background(), "key", aiclient.CompletionRequest{Prompt: "x"})
	require.Error(t, err)

	apiErr, ok := aiclient.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid API key"}`))
	}))
	defer server.Close()

	_, err := newClient(t, server).Chat(context.Background(), "bad", aiclient.ChatRequest{})
	require.Error(t, err)

	apiErr, ok := aiclient.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Invalid API key")
	assert.Equal(t, int32(1), calls.Load())
}
