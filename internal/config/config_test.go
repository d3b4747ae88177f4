package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/psyflow/backend-go/internal/config"
)

func TestLoadConfig_Success(t *testing.T) {
	t.Setenv("API_SERVICE_PORT", "9090")
	t.Setenv("DATABASE_URL", "file:/tmp/psyflow.db")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("LOGIN_LOCKOUT_WINDOW", "60")
	t.Setenv("REDIS_HOST", "localhost")

	cfg := config.LoadConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "9090", cfg.ApiServicePort)
	assert.Equal(t, "file:/tmp/psyflow.db", cfg.DatabaseURL)
	assert.Equal(t, int64(3), cfg.LoginMaxAttempts)
	assert.Equal(t, time.Minute, cfg.LockoutWindow())
	assert.Equal(t, "localhost", cfg.RedisHost)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := config.LoadConfig()

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, config.DefaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:8787", cfg.ListenAddr())
	assert.Equal(t, int64(5), cfg.LoginMaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.ShutdownGrace())
	assert.Empty(t, cfg.RedisHost)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("LOGIN_MAX_ATTEMPTS", "invalid")

	cfg := config.LoadConfig()

	// Should use default when invalid
	assert.Equal(t, int64(5), cfg.LoginMaxAttempts)
}

func TestLoadConfig_LogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)
			assert.Equal(t, tt.want, config.LoadConfig().LogLevel)
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	t.Setenv("APP_ENV", "Production")

	assert.True(t, config.LoadConfig().IsProduction())
}
