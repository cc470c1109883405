package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlfeuAlves/autvya/internal/auth"
	"github.com/AlfeuAlves/autvya/internal/config"
	"github.com/AlfeuAlves/autvya/internal/insight"
	"github.com/AlfeuAlves/autvya/internal/ratelimit"
	"github.com/AlfeuAlves/autvya/internal/server"
	"github.com/AlfeuAlves/autvya/internal/storage"
	"github.com/AlfeuAlves/autvya/internal/telemetry"
	"github.com/AlfeuAlves/autvya/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("AUTVYA_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("autvya starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Connect to database.
	db, err := storage.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer db.Close()

	// Run embedded migrations. RunMigrations tracks applied files in
	// schema_migrations and skips duplicates, so errors here indicate real
	// failures (not "already exists").
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Create JWT manager.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Create the insight generator (optional; disabled without an API key).
	var generator insight.Generator
	if cfg.AnthropicAPIKey != "" {
		generator = insight.NewAnthropicGenerator(cfg.AnthropicAPIKey, cfg.InsightModel, int64(cfg.InsightMaxTokens))
		logger.Info("insight generation: enabled", "model", cfg.InsightModel)
	} else {
		logger.Info("insight generation: disabled (no ANTHROPIC_API_KEY)")
	}

	// Create rate limiters: per-IP on the auth endpoints, per-user on
	// insight generation.
	authLimiter := ratelimit.PerMinute(cfg.AuthRatePerMinute)
	defer func() { _ = authLimiter.Close() }()
	insightLimiter := ratelimit.PerMinute(cfg.InsightRatePerMinute)
	defer func() { _ = insightLimiter.Close() }()

	srv := server.New(server.ServerConfig{
		DB:                  db,
		JWTMgr:              jwtMgr,
		Logger:              logger,
		Generator:           generator,
		AuthLimiter:         authLimiter,
		InsightLimiter:      insightLimiter,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		MetricsDefaultDays:  cfg.MetricsDefaultDays,
		MetricsMaxDays:      cfg.MetricsMaxDays,
		InsightDays:         cfg.InsightDays,
	})

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	// Graceful shutdown: stop accepting new requests and drain in-flight
	// ones before the pool closes.
	slog.Info("autvya shutting down")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	httpCancel()

	slog.Info("autvya stopped")
	return nil
}
