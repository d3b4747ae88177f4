package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv                 string
	LogLevel               slog.Level
	LogFile                string
	ApiServiceHost         string
	ApiServicePort         string
	DatabaseURL            string
	DatabaseConnectRetries int64
	RedisHost              string
	RedisPort              int64
	RedisPassword          string
	RedisDatabase          int64
	LoginMaxAttempts       int64
	LoginLockoutWindow     int64 // Failed-login window in seconds
	ShutdownTimeout        int64 // Graceful shutdown budget in seconds
}

// DefaultDatabaseURL is the local store used when DATABASE_URL is not set.
const DefaultDatabaseURL = "file:./dev.db"

func LoadConfig() *Config {
	return &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),              // Default development
		LogLevel:               getLogLevel(),                                 // Default INFO
		LogFile:                getEnv("LOG_FILE", ""),                        // Default stdout only
		ApiServiceHost:         getEnv("API_SERVICE_HOST", "127.0.0.1"),       // Default loopback
		ApiServicePort:         getEnv("API_SERVICE_PORT", "8787"),            // Default 8787
		DatabaseURL:            getEnv("DATABASE_URL", DefaultDatabaseURL),    // Default local SQLite file
		DatabaseConnectRetries: getEnvAsInt64("DATABASE_CONNECT_RETRIES", 5),  // Default 5 attempts
		RedisHost:              getEnv("REDIS_HOST", ""),                      // Default no Redis
		RedisPort:              getEnvAsInt64("REDIS_PORT", 6379),             // Default 6379
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),                  // Default empty
		RedisDatabase:          getEnvAsInt64("REDIS_DATABASE", 0),            // Default 0
		LoginMaxAttempts:       getEnvAsInt64("LOGIN_MAX_ATTEMPTS", 5),        // Default 5 failures
		LoginLockoutWindow:     getEnvAsInt64("LOGIN_LOCKOUT_WINDOW", 900),    // Default 15 minutes
		ShutdownTimeout:        getEnvAsInt64("SHUTDOWN_TIMEOUT", 10),         // Default 10 seconds
	}
}

// IsProduction reports whether the process runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// ListenAddr is the host:port the local API binds to.
func (c *Config) ListenAddr() string {
	return c.ApiServiceHost + ":" + c.ApiServicePort
}

func (c *Config) LockoutWindow() time.Duration {
	return time.Duration(c.LoginLockoutWindow) * time.Second
}

func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return fallback
}

func getLogLevel() slog.Level {
	levelStr := getEnv("LOG_LEVEL", "INFO")

	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
