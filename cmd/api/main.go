package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/api"
	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
	"github.com/saturnino-fabrica-de-software/facegate/internal/face"
	"github.com/saturnino-fabrica-de-software/facegate/internal/gallery"
	"github.com/saturnino-fabrica-de-software/facegate/internal/keepalive"
	"github.com/saturnino-fabrica-de-software/facegate/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting facegate",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.FaceProvider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Face provider
	faceProvider, err := face.NewFaceProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create face provider: %w", err)
	}
	if closer, ok := faceProvider.(provider.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error("failed to close face provider", slog.Any("error", err))
			}
		}()
	}

	// Gallery store
	var store gallery.Store
	if cfg.DatabaseURL != "" {
		version, err := database.MigrateUp(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to migrate gallery: %w", err)
		}
		logger.Info("gallery schema ready", slog.Uint64("version", uint64(version)))

		pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		store = gallery.NewPostgresStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set, gallery kept in memory")
		store = gallery.NewMemoryStore()
	}

	svc := service.NewFaceService(faceProvider, store, service.Options{
		MatchThreshold: cfg.MatchThreshold,
		EmbeddingDim:   cfg.EmbeddingDim,
		KNNNeighbors:   cfg.KNNNeighbors,
		KNNThreshold:   cfg.KNNThreshold,
	}).WithAuditor(audit.NewSlogLogger(logger))

	// Background workers
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	pinger := keepalive.NewWorker(cfg.URL, logger, cfg.KeepAliveInterval, cfg.KeepAliveTimeout)
	go pinger.Run(workerCtx)

	aggregator := metrics.NewAggregator(store, logger, time.Minute)
	go aggregator.Start(workerCtx)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Config:  cfg,
		Service: svc,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	cancelWorkers()
	aggregator.Stop()

	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")

	return nil
}
