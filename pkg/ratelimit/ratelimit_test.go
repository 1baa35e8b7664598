package ratelimit_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aaiaas/automation/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s/0", endpoint)
}

func TestRedisLimiter_Allow(t *testing.T) {
	redisURL := setupRedis(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	limiter, err := ratelimit.NewRedisLimiter(t.Context(), logger, redisURL, 2, time.Minute)
	require.NoError(t, err)

	t.Cleanup(func() { _ = limiter.Close() })

	first, err := limiter.Allow(t.Context(), "org-1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	second, err := limiter.Allow(t.Context(), "org-1")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := limiter.Allow(t.Context(), "org-1")
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.True(t, third.ResetAt.After(time.Now()))

	other, err := limiter.Allow(t.Context(), "org-2")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "windows are per organization")
}

func TestNewRedisLimiter_InvalidURL(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := ratelimit.NewRedisLimiter(t.Context(), logger, "not a url", 10, time.Minute)
	require.Error(t, err)
}

func TestNewRedisLimiterWithClient_InvalidConfig(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := ratelimit.NewRedisLimiterWithClient(nil, logger, 0, time.Minute)
	require.ErrorIs(t, err, ratelimit.ErrInvalidConfig)

	_, err = ratelimit.NewRedisLimiterWithClient(nil, logger, 10, time.Millisecond)
	require.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
}

func TestNoop_Allow(t *testing.T) {
	t.Parallel()

	decision, err := ratelimit.Noop{}.Allow(t.Context(), "org-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	require.NoError(t, ratelimit.Noop{}.Close())
}
