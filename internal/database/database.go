package database

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/psyflow/backend-go/internal/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// Dialect names the relational store behind DATABASE_URL.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const retryDelay = 2 * time.Second

// Target is a parsed DATABASE_URL.
type Target struct {
	Dialect Dialect
	DSN     string
	// Path is the SQLite file location; empty for PostgreSQL and in-memory stores.
	Path string
}

// ParseURL resolves a connection string into a dialect and driver DSN.
// postgres:// and postgresql:// URLs select PostgreSQL; everything else is a
// SQLite location with an optional "file:" prefix.
func ParseURL(raw string) Target {
	s := strings.Trim(strings.TrimSpace(raw), "\"'")
	if s == "" {
		s = config.DefaultDatabaseURL
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return Target{Dialect: DialectPostgres, DSN: s}
	}

	location, query, _ := strings.Cut(strings.TrimPrefix(s, "file:"), "?")

	params := []string{}
	if query != "" {
		params = append(params, query)
	}
	if !strings.Contains(query, "_foreign_keys") {
		params = append(params, "_foreign_keys=on")
	}
	if !strings.Contains(query, "_busy_timeout") {
		params = append(params, "_busy_timeout=5000")
	}

	target := Target{
		Dialect: DialectSQLite,
		DSN:     "file:" + location + "?" + strings.Join(params, "&"),
	}
	if location != ":memory:" && !strings.Contains(query, "mode=memory") {
		target.Path = location
	}
	return target
}

// Open connects to the store named by cfg.DatabaseURL and applies pending
// migrations. The returned handle is shared by every repository.
func Open(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	target := ParseURL(cfg.DatabaseURL)

	logger.Info("🔌 [Database] Connecting...",
		"dialect", target.Dialect,
		"path", target.Path,
	)

	if target.Path != "" {
		if dir := filepath.Dir(target.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	}

	maxRetries := int(cfg.DatabaseConnectRetries)
	if maxRetries < 1 {
		maxRetries = 1
	}

	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(dialector(target), gormCfg)
		if err == nil {
			// Test the connection
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				if err = sqlDB.Ping(); err == nil {
					break
				}
			} else {
				err = dbErr
			}
		}

		if i < maxRetries-1 {
			logger.Warn("⏳ [Database] Connection failed, retrying...",
				"attempt", i+1,
				"max_retries", maxRetries,
				"retry_in", retryDelay,
				"error", err,
			)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", target.Dialect, maxRetries, err)
	}

	logger.Info("✅ [Database] Database connection established")

	logger.Info("🔄 [Database] Running migrations...")
	if err := Migrate(db, target.Dialect, logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("✅ [Database] Migrations completed successfully")

	return db, nil
}

// Migrate applies the embedded goose migrations for dialect. goose output
// goes through logger.
func Migrate(gormDB *gorm.DB, dialect Dialect, logger *slog.Logger) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{logger: logger})

	gooseDialect := "postgres"
	if dialect == DialectSQLite {
		gooseDialect = "sqlite3"
	}

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(sqlDB, "migrations/"+string(dialect)); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	return nil
}

// gooseLogger adapts goose's printf-style logging to slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

// Fatalf keeps goose's contract: the process exits.
func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
	os.Exit(1)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialector(target Target) gorm.Dialector {
	if target.Dialect == DialectPostgres {
		return postgres.Open(target.DSN)
	}
	return sqlite.Open(target.DSN)
}

func gormLogLevel(level slog.Level) gormlogger.LogLevel {
	if level <= slog.LevelDebug {
		return gormlogger.Info
	}
	return gormlogger.Silent
}
