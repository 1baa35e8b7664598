package registry_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/aaiaas/automation/pkg/aiclient"
	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/protocol"
	"github.com/aaiaas/automation/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopAI struct{}

func (nopAI) Chat(context.Context, string, aiclient.ChatRequest) (*aiclient.ChatResponse, error) {
	return &aiclient.ChatResponse{}, nil
}

func (nopAI) Completion(context.Context, string, aiclient.CompletionRequest) (*aiclient.CompletionResponse, error) {
	return &aiclient.CompletionResponse{}, nil
}

func (nopAI) Embeddings(context.Context, string, aiclient.EmbeddingsRequest) (*aiclient.EmbeddingsResponse, error) {
	return &aiclient.EmbeddingsResponse{}, nil
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(logger)
	reg.RegisterDefaults(registry.Dependencies{AI: nopAI{}, Logger: logger})

	return reg
}

func TestRegistry_Defaults(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)

	for _, nodeType := range models.NodeTypes() {
		evaluator, err := reg.Evaluator(nodeType)
		require.NoError(t, err, nodeType)
		assert.NotNil(t, evaluator)
	}

	for _, actionType := range models.ActionTypes() {
		action, err := reg.Action(actionType)
		require.NoError(t, err, actionType)
		assert.NotNil(t, action)
	}

	assert.Len(t, reg.ActionFactories(), len(models.ActionTypes()))
	assert.Len(t, reg.NodeFactories(), len(models.NodeTypes()))
	require.NoError(t, reg.HealthCheck(context.Background()))
}

func TestRegistry_WithoutAIClient(t *testing.T) {
	t.Parallel()

	reg := registry.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.RegisterDefaults(registry.Dependencies{})

	_, err := reg.Action(models.ActionTypeAIChat)
	require.ErrorIs(t, err, protocol.ErrUnknownActionType)

	_, err = reg.Action(models.ActionTypeDelay)
	require.NoError(t, err)
}

func TestRegistry_UnknownTypes(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)

	_, err := reg.Evaluator("loop")
	require.Error(t, err)
	assert.Equal(t, "Unknown node type: loop", err.Error())

	_, err = reg.Action("send_fax")
	require.Error(t, err)
	assert.Equal(t, "Unknown action type: send_fax", err.Error())
}

func TestRegistry_HealthCheckEmpty(t *testing.T) {
	t.Parallel()

	reg := registry.New(slog.Default())
	require.ErrorIs(t, reg.HealthCheck(context.Background()), registry.ErrNoNodeFactories)
}

func TestRegistry_ValidateActionConfig(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)

	tests := []struct {
		name       string
		actionType models.ActionType
		config     map[string]any
		wantErr    bool
	}{
		{name: "delay default", actionType: models.ActionTypeDelay, config: nil},
		{name: "delay duration", actionType: models.ActionTypeDelay, config: map[string]any{"duration": 50}},
		{name: "delay negative", actionType: models.ActionTypeDelay, config: map[string]any{"duration": -5}, wantErr: true},
		{name: "delay unknown field", actionType: models.ActionTypeDelay, config: map[string]any{"wait": 5}, wantErr: true},
		{name: "http ok", actionType: models.ActionTypeHTTPRequest, config: map[string]any{
			"url":     "https://example.com/{{id}}",
			"method":  "POST",
			"headers": map[string]any{"X-Token": "{{token}}"},
			"body":    map[string]any{"a": 1},
		}},
		{name: "http missing url", actionType: models.ActionTypeHTTPRequest, config: map[string]any{"method": "GET"}, wantErr: true},
		{name: "http bad method", actionType: models.ActionTypeHTTPRequest, config: map[string]any{
			"url": "https://example.com", "method": "FETCH",
		}, wantErr: true},
		{name: "chat ok", actionType: models.ActionTypeAIChat, config: map[string]any{
			"messages": []any{map[string]any{"role": "user", "content": "{{question}}"}},
		}},
		{name: "chat without messages", actionType: models.ActionTypeAIChat, config: map[string]any{}, wantErr: true},
		{name: "completion ok", actionType: models.ActionTypeAICompletion, config: map[string]any{"prompt": "hi", "maxTokens": 20}},
		{name: "embeddings list", actionType: models.ActionTypeAIEmbeddings, config: map[string]any{"input": []any{"a", "b"}}},
		{name: "embeddings number", actionType: models.ActionTypeAIEmbeddings, config: map[string]any{"input": 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := reg.ValidateActionConfig(tt.actionType, tt.config)
			if !tt.wantErr {
				require.NoError(t, err)

				return
			}

			var validationErr *registry.ConfigValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.NotEmpty(t, validationErr.Violations)
		})
	}
}

func TestRegistry_ValidateNode(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)

	require.NoError(t, reg.ValidateNode(&models.WorkflowNode{
		ID: "a", Type: models.NodeTypeAction,
		Config: map[string]any{"actionType": "delay", "config": map[string]any{"duration": 10}},
	}))

	err := reg.ValidateNode(&models.WorkflowNode{
		ID: "a", Type: models.NodeTypeAction, Config: map[string]any{"actionType": "send_fax"},
	})
	require.ErrorIs(t, err, protocol.ErrUnknownActionType)

	err = reg.ValidateNode(&models.WorkflowNode{ID: "c", Type: models.NodeTypeCondition, Config: map[string]any{}})
	require.Error(t, err)

	err = reg.ValidateNode(&models.WorkflowNode{ID: "x", Type: "loop"})
	require.ErrorIs(t, err, protocol.ErrUnknownNodeType)
}
