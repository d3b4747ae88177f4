package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/psyflow/backend-go/internal/config"
)

const redisPingTimeout = 5 * time.Second

// RedisEnabled reports whether a Redis host is configured.
func RedisEnabled(cfg *config.Config) bool {
	return cfg.RedisHost != ""
}

// NewRedisClient connects to the configured Redis instance and verifies it
// answers a PING before handing the client out.
func NewRedisClient(cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	logger.Info("🔌 [Redis] Connecting to Redis...",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
		"db", cfg.RedisDatabase,
	)

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDatabase),
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [Redis] Redis connection established")
	return client, nil
}
