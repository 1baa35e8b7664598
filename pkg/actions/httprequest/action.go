// Package httprequest provides the generic HTTP request action.
package httprequest

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

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/template"
	"github.com/cenkalti/backoff/v5"
)

const defaultRetryDelay = time.Second

// MaxResponseBytes caps the response body a request may return.
const MaxResponseBytes = 10 << 20

var (
	// ErrHTTPRequestURLInvalid is returned when the request URL is missing.
	ErrHTTPRequestURLInvalid = errors.New("invalid HTTP request url")
	// ErrHTTPMethodInvalid is returned when the HTTP method is not supported.
	ErrHTTPMethodInvalid = errors.New("invalid HTTP method")
)

// HTTPError is returned when the remote server answers with a non-2xx status.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
}

// ResponseTooLargeError is returned when a successful response body exceeds MaxResponseBytes.
type ResponseTooLargeError struct {
	Method string
	URL    string
	Limit  int64
}

func (e *ResponseTooLargeError) Error() string {
	return fmt.Sprintf("%s %s response body exceeds %d bytes", e.Method, e.URL, e.Limit)
}

// Action performs an HTTP request with interpolated url, headers and body.
type Action struct {
	client *http.Client
	logger *slog.Logger
}

func NewAction(client *http.Client, logger *slog.Logger) *Action {
	return &Action{
		client: client,
		logger: logger.With("module", "http_request_action"),
	}
}

type request struct {
	method  string
	url     string
	headers map[string]string
	body    []byte
	timeout time.Duration
}

// Execute issues the request and returns the response body, decoded when it is JSON.
func (a *Action) Execute(ctx context.Context, config map[string]any, wctx *models.WorkflowContext) (any, error) {
	interpolated, _ := template.InterpolateValue(config, wctx.Variables).(map[string]any)

	var cfg models.HTTPRequestConfig

	err := models.DecodeConfig(interpolated, &cfg)
	if err != nil {
		return nil, err
	}

	req, err := newRequest(cfg)
	if err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "executing http request", "method", req.method, "url", req.url,
		"execution_id", wctx.ExecutionID)

	retryDelay := defaultRetryDelay
	if cfg.Retries.Delay > 0 {
		retryDelay = time.Duration(cfg.Retries.Delay) * time.Millisecond
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryDelay

	return backoff.Retry(ctx, func() (any, error) {
		return a.do(ctx, req)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(max(cfg.Retries.Attempts, 0))+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.logger.WarnContext(ctx, "retrying http request", "url", req.url, "error", err, "backoff", next)
		}),
	)
}

func newRequest(cfg models.HTTPRequestConfig) (request, error) {
	if cfg.URL == "" {
		return request{}, ErrHTTPRequestURLInvalid
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = models.DefaultHTTPMethod
	}

	if !validMethod(method) {
		return request{}, fmt.Errorf("%w: %s", ErrHTTPMethodInvalid, cfg.Method)
	}

	timeout := time.Duration(models.DefaultHTTPTimeoutSeconds) * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	headers := make(map[string]string, len(cfg.Headers)+1)
	for key, value := range cfg.Headers {
		headers[key] = value
	}

	var body []byte

	switch b := cfg.Body.(type) {
	case nil:
	case string:
		body = []byte(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return request{}, fmt.Errorf("failed to marshal body: %w", err)
		}

		body = encoded

		if !hasHeader(headers, "Content-Type") {
			headers["Content-Type"] = "application/json"
		}
	}

	return request{method: method, url: cfg.URL, headers: headers, body: body, timeout: timeout}, nil
}

func (a *Action) do(ctx context.Context, r request) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var bodyReader io.Reader
	if r.body != nil {
		bodyReader = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, bodyReader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create http request: %w", err))
	}

	for key, value := range r.headers {
		req.Header.Set(key, value)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	tooLarge := len(raw) > MaxResponseBytes
	if tooLarge {
		raw = raw[:MaxResponseBytes]
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &HTTPError{Method: r.method, URL: r.url, StatusCode: resp.StatusCode, Body: string(raw)}
		if resp.StatusCode >= 500 {
			return nil, httpErr
		}

		return nil, backoff.Permanent(httpErr)
	}

	if tooLarge {
		return nil, backoff.Permanent(&ResponseTooLargeError{Method: r.method, URL: r.url, Limit: MaxResponseBytes})
	}

	return decodeBody(raw), nil
}

func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return string(raw)
	}

	var body any

	err := json.Unmarshal(raw, &body)
	if err != nil {
		return string(raw)
	}

	return body
}

func validMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
		http.MethodPatch, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func hasHeader(headers map[string]string, name string) bool {
	for key := range headers {
		if strings.EqualFold(key, name) {
			return true
		}
	}

	return false
}
