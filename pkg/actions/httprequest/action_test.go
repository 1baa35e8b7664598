package httprequest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aaiaas/automation/pkg/actions/httprequest"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAction() *httprequest.Action {
	return httprequest.NewAction(http.DefaultClient, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func runContext(vars map[string]any) *models.WorkflowContext {
	return &models.WorkflowContext{ExecutionID: "exec-1", Variables: vars}
}

func TestAction_Execute_GETReturnsDecodedJSON(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodGet, request.Method)
		assert.Equal(t, "/users/42", request.URL.Path)
		assert.Equal(t, "Bearer token-1", request.Header.Get("Authorization"))

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"status":"success","id":42}`))
	}))
	defer server.Close()

	result, err := newAction().Execute(context.Background(), map[string]any{
		"url": server.URL + "/users/{{userId}}",
		"headers": map[string]any{
			"Authorization": "Bearer {{token}}",
		},
	}, runContext(map[string]any{"userId": 42, "token": "token-1"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "success", "id": float64(42)}, result)
}

func TestAction_Execute_POSTWithObjectBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "hello Ada", body["message"])

		writer.WriteHeader(http.StatusCreated)
		_, _ = writer.Write([]byte(`{"created":true}`))
	}))
	defer server.Close()

	result, err := newAction().Execute(context.Background(), map[string]any{
		"url":    server.URL,
		"method": "post",
		"body":   map[string]any{"message": "hello {{name}}"},
	}, runContext(map[string]any{"name": "Ada"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"created": true}, result)
}

func TestAction_Execute_NonJSONBodyReturnedAsString(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		raw, _ := io.ReadAll(request.Body)
		assert.Equal(t, "plain payload", string(raw))

		_, _ = writer.Write([]byte("ok"))
	}))
	defer server.Close()

	result, err := newAction().Execute(context.Background(), map[string]any{
		"url":    server.URL,
		"method": "PUT",
		"body":   "plain payload",
	}, runContext(map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestAction_Execute_ClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writer.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newAction().Execute(context.Background(), map[string]any{
		"url":     server.URL,
		"retries": map[string]any{"attempts": 3, "delay": 1},
	}, runContext(map[string]any{}))
	require.Error(t, err)

	var httpErr *httprequest.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAction_Execute_ResponseBodyLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "body at the limit is returned", size: httprequest.MaxResponseBytes},
		{name: "body over the limit fails", size: httprequest.MaxResponseBytes + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				_, _ = writer.Write(bytes.Repeat([]byte("x"), tt.size))
			}))
			defer server.Close()

			result, err := newAction().Execute(context.Background(), map[string]any{
				"url":     server.URL,
				"retries": map[string]any{"attempts": 2, "delay": 1},
			}, runContext(map[string]any{}))

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Len(t, result, tt.size)

				return
			}

			var tooLarge *httprequest.ResponseTooLargeError
			require.ErrorAs(t, err, &tooLarge)
			assert.Equal(t, int64(httprequest.MaxResponseBytes), tooLarge.Limit)
			assert.Nil(t, result)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestAction_Execute_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			writer.WriteHeader(http.StatusBadGateway)

			return
		}

		_, _ = writer.Write([]byte(`"done"`))
	}))
	defer server.Close()

	result, err := newAction().Execute(context.Background(), map[string]any{
		"url":     server.URL,
		"retries": map[string]any{"attempts": 2, "delay": 1},
	}, runContext(map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAction_Execute_WithoutRetriesFailsOnFirstServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writer.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newAction().Execute(context.Background(), map[string]any{"url": server.URL}, runContext(map[string]any{}))

	var httpErr *httprequest.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAction_Execute_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-release:
		case <-request.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newAction().Execute(ctx, map[string]any{"url": server.URL}, runContext(map[string]any{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAction_Execute_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := newAction().Execute(context.Background(), map[string]any{}, runContext(map[string]any{}))
	require.ErrorIs(t, err, httprequest.ErrHTTPRequestURLInvalid)

	_, err = newAction().Execute(context.Background(), map[string]any{
		"url":    "http://localhost",
		"method": "TRACE",
	}, runContext(map[string]any{}))
	require.ErrorIs(t, err, httprequest.ErrHTTPMethodInvalid)
}

func TestActionFactory(t *testing.T) {
	t.Parallel()

	factory := httprequest.NewActionFactory(nil, slog.Default())

	assert.Equal(t, models.ActionTypeHTTPRequest, factory.ID())
	assert.Equal(t, "HTTP Request", factory.Name())
	assert.NotEmpty(t, factory.Description())
	assert.Equal(t, []string{"url"}, factory.Schema()["required"])

	action, err := factory.Create()
	require.NoError(t, err)
	assert.NotNil(t, action)
}
