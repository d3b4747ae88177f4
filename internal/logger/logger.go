package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/psyflow/backend-go/internal/config"
)

// New builds the process logger and installs it as the slog default. The
// returned close function releases LOG_FILE when one is open.
func New(cfg *config.Config) (*slog.Logger, func() error) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	out, closeFn, fileErr := output(cfg)

	if cfg.IsProduction() {
		// JSON format
		handler = slog.NewJSONHandler(out, opts)
	} else {
		// Human-readable format
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)

	slog.SetDefault(logger)

	if fileErr != nil {
		logger.Warn("⚠️ [Logger] Failed to open log file, logging to stdout only",
			"path", cfg.LogFile,
			"error", fileErr,
		)
	}

	return logger, closeFn
}

// output returns stdout, teeing into LOG_FILE when one is configured.
// An unwritable log file falls back to stdout alone and reports why.
func output(cfg *config.Config) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	if cfg.LogFile == "" {
		return os.Stdout, noop, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stdout, noop, err
	}

	return io.MultiWriter(os.Stdout, f), f.Close, nil
}
