package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "login:failures:"

type redisLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
	logger      *slog.Logger
}

// NewRedisLimiter creates a limiter whose counters live in Redis, so every
// process sharing the instance sees the same lockouts. The limiter owns
// client and closes it on Close.
func NewRedisLimiter(client *redis.Client, maxAttempts int64, window time.Duration, logger *slog.Logger) LoginLimiter {
	logger.Info("✅ [RateLimiter] Using Redis login limiter",
		"max_attempts", maxAttempts,
		"window", window,
	)
	return &redisLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
	}
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

func (r *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Get(ctx, redisKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return count < r.maxAttempts, nil
}

// RecordFailure increments the counter and restarts its expiry, so the
// lockout lasts one full window after the most recent failure.
func (r *redisLimiter) RecordFailure(ctx context.Context, key string) error {
	k := redisKey(key)

	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to record login failure", "error", err)
		return err
	}
	return nil
}

func (r *redisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisKey(key)).Err()
}

func (r *redisLimiter) Close() error {
	return r.client.Close()
}
