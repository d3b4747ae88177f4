package logger_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psyflow/backend-go/internal/config"
	"github.com/psyflow/backend-go/internal/logger"
)

func TestNew_Default(t *testing.T) {
	cfg := &config.Config{
		LogLevel: slog.LevelInfo,
	}

	log, closeFn := logger.New(cfg)

	assert.NotNil(t, log)
	assert.Same(t, log, slog.Default())
	assert.NoError(t, closeFn())
}

func TestNew_LevelFiltering(t *testing.T) {
	cfg := &config.Config{
		LogLevel: slog.LevelWarn,
	}

	log, _ := logger.New(cfg)

	assert.False(t, log.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, log.Enabled(context.Background(), slog.LevelError))
}

func TestNew_WritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combined.log")
	cfg := &config.Config{
		AppEnv:   "production",
		LogLevel: slog.LevelInfo,
		LogFile:  path,
	}

	log, closeFn := logger.New(cfg)
	log.Info("patient created", "patient_id", "p-1")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"patient created"`)
	assert.Contains(t, string(data), `"patient_id":"p-1"`)
}

func TestNew_UnwritableLogFileFallsBack(t *testing.T) {
	cfg := &config.Config{
		LogLevel: slog.LevelInfo,
		LogFile:  filepath.Join(t.TempDir(), "missing", "dir", "combined.log"),
	}

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = stdout })

	log, closeFn := logger.New(cfg)
	os.Stdout = stdout
	require.NoError(t, w.Close())

	captured, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.NotNil(t, log)
	assert.NoError(t, closeFn())
	assert.Contains(t, string(captured), "Failed to open log file")
	assert.Contains(t, string(captured), "combined.log")
}
