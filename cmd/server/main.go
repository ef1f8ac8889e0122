package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/pkg/config"
	"literary-character-ai/backend/pkg/di"
	"literary-character-ai/backend/pkg/health"
	"literary-character-ai/backend/pkg/logger"
	"literary-character-ai/backend/pkg/router"
	"literary-character-ai/backend/shared/observability"
)

func main() {
	// config.New loads .env before reading the environment
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application",
		"version", os.Getenv("APP_VERSION"),
		"env", cfg.Server.Env,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.TracingEnabled {
		shutdownTracing, err := observability.SetupTracing(cfg.Observability.ServiceName, os.Stdout)
		if err != nil {
			log.LogError(err, "Failed to initialize tracing")
		} else {
			defer func() { _ = shutdownTracing(context.Background()) }()
		}
	}

	metrics, err := observability.SetupMetrics(cfg.Observability.ServiceName)
	if err != nil {
		log.LogError(err, "Failed to initialize metrics, /metrics is disabled")
		metrics = nil
	} else {
		defer func() { _ = metrics.Shutdown(context.Background()) }()
	}

	db, err := config.NewDB(cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := models.AutoMigrate(db); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	container, err := di.New(ctx, cfg, db, log, di.Options{})
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	defer func() { _ = container.Close() }()

	r := router.New(ctx, container, metrics)
	r.AddOpenAPIValidation(cfg.OpenAPI.SchemaPath)
	r.SetupRoutes()

	container.Health.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		// Chat turns wait on the LLM; keep the write deadline above its timeout
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	grpcHealth := health.NewGRPCServer(container.Health, cfg.Observability.ServiceName, log)
	go func() {
		addr := ":" + cfg.Observability.GRPCHealthPort
		log.Info("gRPC health server starting", "addr", addr)
		if err := grpcHealth.Serve(addr); err != nil {
			log.LogError(err, "gRPC health server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}
	grpcHealth.Shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}
