package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/psyflow/backend-go/internal/api"
	"github.com/psyflow/backend-go/internal/config"
	"github.com/psyflow/backend-go/internal/database"
	"github.com/psyflow/backend-go/internal/database/repository"
	"github.com/psyflow/backend-go/internal/database/service"
	"github.com/psyflow/backend-go/internal/handler"
	"github.com/psyflow/backend-go/internal/logger"
	"github.com/psyflow/backend-go/internal/ratelimit"
	"github.com/psyflow/backend-go/internal/worker"
)

func main() {
	os.Exit(run())
}

// run wires and serves the backend and returns the process exit code. Deferred
// cleanup always runs before main exits.
func run() int {
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	// 1. Environment (.env is optional)
	envErr := godotenv.Load()

	// 2. Config
	cfg := config.LoadConfig()

	// 3. Logger
	appLogger, closeLog := logger.New(cfg)
	defer func() {
		_ = closeLog()
	}()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		appLogger.Warn("⚠️ Failed to load .env file", "error", envErr)
	}

	appLogger.Info("🚀 [Go] Starting PsyFlow backend...",
		"environment", cfg.AppEnv,
		"addr", cfg.ListenAddr(),
	)

	// 4. Connect to Database (migrations run on open)
	db, err := database.Open(cfg, appLogger)
	if err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		return 1
	}
	defer func() {
		if err := database.Close(db); err != nil {
			appLogger.Warn("⚠️ Failed to close database", "error", err)
		}
	}()

	if *migrateOnly {
		appLogger.Info("✅ Migrations applied, exiting (-migrate-only)")
		return 0
	}

	// 5. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// 6. Login limiter (Redis, in-memory or disabled)
	limiter := ratelimit.New(cfg, appLogger)
	defer func() {
		if err := limiter.Close(); err != nil {
			appLogger.Warn("⚠️ Failed to close login limiter", "error", err)
		}
	}()

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, limiter, appLogger)
	patientService := service.NewPatientService(patientRepo, appLogger)
	settingsService := service.NewSettingsService(settingsRepo, appLogger)
	sessionService := service.NewSessionService(sessionRepo, patientRepo, settingsRepo, appLogger)

	// 8. Initialize Handlers & Dispatch
	registry := handler.NewRegistry(appLogger,
		handler.NewAuthHandler(authService, appLogger),
		handler.NewPatientHandler(patientService, appLogger),
		handler.NewSettingsHandler(settingsService, appLogger),
		handler.NewSessionHandler(sessionService, appLogger),
	)

	// 9. Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.SetupRouter(registry, appLogger)

	// 10. Start HTTP Server and wait for a signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := worker.NewPool(ctx, appLogger)
	pool.Go("http-server", func(ctx context.Context) error {
		return api.Serve(ctx, cfg.ListenAddr(), r, cfg.ShutdownGrace(), appLogger)
	})

	<-pool.Done()

	if err := pool.Shutdown(cfg.ShutdownGrace()); err != nil {
		appLogger.Error("❌ Server stopped with errors", "error", err)
		return 1
	}
	appLogger.Info("👋 [Go] Shutdown complete")
	return 0
}
