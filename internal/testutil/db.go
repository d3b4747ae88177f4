// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/psyflow/backend-go/internal/config"
	"github.com/psyflow/backend-go/internal/database"
)

// Logger returns a logger that discards everything below ERROR.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// NewTestDB opens a migrated SQLite database in a per-test temp directory.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.Config{
		LogLevel:               slog.LevelError,
		DatabaseURL:            "file:" + filepath.Join(t.TempDir(), "test.db"),
		DatabaseConnectRetries: 1,
	}

	db, err := database.Open(cfg, Logger())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = database.Close(db)
	})

	return db
}
