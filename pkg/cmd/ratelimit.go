package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/aaiaas/automation/pkg/ratelimit"
)

// NewRateLimiter returns the Redis limiter, or a limiter that allows everything when no Redis URL is set.
func NewRateLimiter(ctx context.Context, logger *slog.Logger, redisURL string, limit int, window time.Duration) (ratelimit.Limiter, error) {
	if redisURL == "" {
		logger.WarnContext(ctx, "REDIS_URL not set, execution rate limiting disabled")

		return ratelimit.Noop{}, nil
	}

	limiter, err := ratelimit.NewRedisLimiter(ctx, logger, redisURL, limit, window)
	if err != nil {
		return nil, err
	}

	return limiter, nil
}
