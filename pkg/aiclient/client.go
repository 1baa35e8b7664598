// Package aiclient is the HTTP client for the external AI backend.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aaiaas/automation/pkg/metrics"
	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ChatEndpoint        = "/api/v1/chat"
	CompletionsEndpoint = "/api/v1/completions"
	EmbeddingsEndpoint  = "/api/v1/embeddings"

	defaultTimeout  = 60 * time.Second
	defaultMaxTries = 3
	maxErrorBody    = 1024
)

// Client talks to the AI backend. The bearer credential is supplied per call.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	logger          *slog.Logger
	maxTries        uint
	initialInterval time.Duration
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetry sets the maximum number of attempts and the first backoff interval.
func WithRetry(maxTries uint, initialInterval time.Duration) Option {
	return func(c *Client) {
		c.maxTries = max(maxTries, 1)
		c.initialInterval = initialInterval
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
		logger:          slog.Default(),
		maxTries:        defaultMaxTries,
		initialInterval: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func (c *Client) Chat(ctx context.Context, apiKey string, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse

	err := c.post(ctx, ChatEndpoint, apiKey, req, &resp)
	if err != nil {
		return nil, err
	}

	metrics.AITokens(ChatEndpoint, resp.Usage)

	return &resp, nil
}

func (c *Client) Completion(ctx context.Context, apiKey string, req CompletionRequest) (*CompletionResponse, error) {
	var resp CompletionResponse

	err := c.post(ctx, CompletionsEndpoint, apiKey, req, &resp)
	if err != nil {
		return nil, err
	}

	metrics.AITokens(CompletionsEndpoint, resp.Usage)

	return &resp, nil
}

func (c *Client) Embeddings(ctx context.Context, apiKey string, req EmbeddingsRequest) (*EmbeddingsResponse, error) {
	var resp EmbeddingsResponse

	err := c.post(ctx, EmbeddingsEndpoint, apiKey, req, &resp)
	if err != nil {
		return nil, err
	}

	metrics.AITokens(EmbeddingsEndpoint, resp.Usage)

	return &resp, nil
}

func (c *Client) post(ctx context.Context, endpoint, apiKey string, payload, out any) error {
	if apiKey == "" {
		return ErrMissingAPIKey
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode AI request: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval

	raw, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.send(ctx, endpoint, apiKey, body)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.WarnContext(ctx, "retrying AI request", "endpoint", endpoint, "error", err, "backoff", next)
		}),
	)

	metrics.AICall(endpoint, err)

	if err != nil {
		return err
	}

	err = json.Unmarshal(raw, out)
	if err != nil {
		return fmt.Errorf("failed to decode AI response from %s: %w", endpoint, err)
	}

	return nil
}

func (c *Client) send(ctx context.Context, endpoint, apiKey string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create AI request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}

		return nil, fmt.Errorf("AI request to %s failed: %w", endpoint, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read AI response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(raw), maxErrorBody)}
		if apiErr.Retryable() {
			return nil, apiErr
		}

		return nil, backoff.Permanent(apiErr)
	}

	return raw, nil
}

// IsAPIError reports whether err carries an AI backend status error.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}
