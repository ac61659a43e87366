package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
	"github.com/saturnino-fabrica-de-software/facegate/internal/face"
	"github.com/saturnino-fabrica-de-software/facegate/internal/gallery"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/service"
)

// Version is the application version.
const Version = "0.1.0"

// app holds what every subcommand shares; it is filled in PersistentPreRunE.
type app struct {
	dbURL   string
	verbose bool
	stderr  io.Writer

	cfg      *config.Config
	logger   *slog.Logger
	provider provider.FaceProvider
	closers  []func()
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{stderr: os.Stderr}

	root := &cobra.Command{
		Use:           "facectl",
		Short:         "Encode, verify and identify faces from the command line",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stderr = cmd.ErrOrStderr()
			return a.init()
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.PersistentFlags().StringVar(&a.dbURL, "db", "", "PostgreSQL connection string (default: $DATABASE_URL)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newEncodeCmd(a),
		newVerifyCmd(a),
		newTrainCmd(a),
		newPredictCmd(a),
	)
	return root, a
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	if a.dbURL == "" {
		a.dbURL = cfg.DatabaseURL
	}

	a.logger = config.NewLoggerTo(a.stderr, cfg.Environment, a.logLevel())

	p, err := face.NewFaceProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create face provider: %w", err)
	}
	a.provider = p
	if closer, ok := p.(provider.Closer); ok {
		a.closers = append(a.closers, func() { _ = closer.Close() })
	}
	return nil
}

// logLevel keeps the CLI quiet unless LOG_LEVEL or --verbose asks otherwise.
func (a *app) logLevel() string {
	if a.verbose {
		return "debug"
	}
	if a.cfg.LogLevel != "" {
		return a.cfg.LogLevel
	}
	return "warn"
}

// close releases the provider and database pool. It runs after Execute,
// whether or not the command failed.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) options() service.Options {
	return service.Options{
		MatchThreshold: a.cfg.MatchThreshold,
		EmbeddingDim:   a.cfg.EmbeddingDim,
		KNNNeighbors:   a.cfg.KNNNeighbors,
		KNNThreshold:   a.cfg.KNNThreshold,
	}
}

// service builds a face service; encode and verify never touch the gallery.
func (a *app) service() *service.FaceService {
	return service.NewFaceService(a.provider, gallery.NewMemoryStore(), a.options())
}

// galleryService builds a face service over the PostgreSQL gallery,
// applying pending migrations first.
func (a *app) galleryService(ctx context.Context) (*service.FaceService, error) {
	if a.dbURL == "" {
		return nil, fmt.Errorf("a gallery database is required: pass --db or set DATABASE_URL")
	}
	if _, err := database.MigrateUp(a.dbURL); err != nil {
		return nil, fmt.Errorf("failed to migrate gallery: %w", err)
	}

	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(a.dbURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	svc := service.NewFaceService(a.provider, gallery.NewPostgresStore(pool), a.options()).
		WithAuditor(audit.NewSlogLogger(a.logger))
	return svc, nil
}

func readImageB64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
