// Package ratelimit throttles repeated failed logins for the same account.
//
// A limiter counts failures per key (the lower-cased email) and Allow reports
// false once a key has used up its attempts. A successful login calls Reset.
// Recovery differs by backend:
//
//   - Redis keeps a counter that expires one window after the latest failure,
//     so a blocked key stays locked out for the whole window.
//   - The in-memory backend is a token bucket that refills one attempt every
//     window/maxAttempts, so a blocked key regains single attempts gradually.
package ratelimit

import (
	"context"
	"log/slog"

	"github.com/psyflow/backend-go/internal/config"
	"github.com/psyflow/backend-go/internal/database"
)

// LoginLimiter tracks failed login attempts per key.
type LoginLimiter interface {
	// Allow reports whether another attempt for key may proceed.
	Allow(ctx context.Context, key string) (bool, error)

	// RecordFailure counts one failed attempt for key.
	RecordFailure(ctx context.Context, key string) error

	// Reset forgets every recorded failure for key.
	Reset(ctx context.Context, key string) error

	Close() error
}

// New picks the limiter backend from configuration: disabled when
// LOGIN_MAX_ATTEMPTS <= 0, Redis when REDIS_HOST is set and reachable,
// in-process otherwise.
func New(cfg *config.Config, logger *slog.Logger) LoginLimiter {
	if cfg.LoginMaxAttempts <= 0 {
		return NewNoOpLimiter(logger)
	}

	if database.RedisEnabled(cfg) {
		client, err := database.NewRedisClient(cfg, logger)
		if err == nil {
			return NewRedisLimiter(client, cfg.LoginMaxAttempts, cfg.LockoutWindow(), logger)
		}
		logger.Warn("⚠️ [RateLimiter] Redis unavailable, falling back to in-memory limiter", "error", err)
	}

	return NewMemoryLimiter(cfg.LoginMaxAttempts, cfg.LockoutWindow(), logger)
}

// NoOpLimiter always allows requests
type NoOpLimiter struct{}

// NewNoOpLimiter creates a limiter that never blocks
func NewNoOpLimiter(logger *slog.Logger) LoginLimiter {
	logger.Warn("⚠️ [RateLimiter] Using no-op limiter - login throttling is disabled")
	return &NoOpLimiter{}
}

func (NoOpLimiter) Allow(ctx context.Context, key string) (bool, error) { return true, nil }

func (NoOpLimiter) RecordFailure(ctx context.Context, key string) error { return nil }

func (NoOpLimiter) Reset(ctx context.Context, key string) error { return nil }

func (NoOpLimiter) Close() error { return nil }
