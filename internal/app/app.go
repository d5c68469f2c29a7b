// Package app assembles the ETL service: configuration, logging, the
// pipeline runner, and the HTTP server lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"salesetl/internal/cache"
	"salesetl/internal/config"
	"salesetl/internal/errors"
	"salesetl/internal/extract"
	"salesetl/internal/infrastructure"
	"salesetl/internal/load"
	"salesetl/internal/pipeline"
	"salesetl/internal/quality"
	"salesetl/internal/retry"
	"salesetl/internal/transform"
	transporthttp "salesetl/internal/transport/http"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Application bundles the wired service components.
type Application struct {
	Config       *config.Config
	Logger       *slog.Logger
	CacheManager *cache.Manager
	Runner       *pipeline.Runner
	Server       *http.Server
}

// NewApplication wires the application from configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	app := &Application{Config: cfg, Logger: logger}

	runner, manager, err := BuildRunner(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Runner = runner
	app.CacheManager = manager

	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		Config:       cfg,
		Runner:       app.Runner,
		CacheManager: app.CacheManager,
		Version:      transporthttp.VersionInfo{Version: Version},
		Logger:       logger,
	})

	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

// BuildRunner wires the pipeline runner and transform cache from
// configuration. It is shared by the server and the one-shot CLI.
func BuildRunner(cfg *config.Config, logger *slog.Logger) (*pipeline.Runner, *cache.Manager, error) {
	var manager *cache.Manager
	if cfg.Cache.Enabled {
		m, err := cache.NewManager(cfg.Cache.Dir, cfg.Cache.TTL(), logger)
		if err != nil {
			// Caching is best-effort; run uncached rather than fail.
			logger.Warn("cache disabled: manager init failed", slog.String("error", err.Error()))
		} else {
			manager = m
		}
	}

	source, err := buildSource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	destinations, err := buildDestinations(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	transformer := transform.NewPipeline(manager, logger, nil)
	checker := quality.NewChecker(quality.RulesFromConfig(cfg.Quality), logger, nil)

	runner := pipeline.NewRunner(source, transformer, checker, logger,
		pipeline.WithDestinations(destinations...),
		pipeline.WithMinScore(cfg.Quality.MinScore),
		pipeline.WithReportsDir(cfg.Pipeline.ReportsDir),
	)
	return runner, manager, nil
}

// retryOptions derives the adapter retry options from configuration.
func retryOptions(cfg *config.Config) []retry.Option {
	return []retry.Option{
		retry.WithMaxAttempts(cfg.Retry.MaxAttempts),
		retry.WithInitialDelay(cfg.Retry.InitialDelay),
		retry.WithBackoffFactor(cfg.Retry.BackoffFactor),
	}
}

// buildSource creates the extraction adapter named by the configuration.
func buildSource(cfg *config.Config, logger *slog.Logger) (extract.Source, error) {
	switch cfg.Pipeline.Source {
	case "csv":
		return extract.NewCSVSource(cfg.Pipeline.SourcePath, logger), nil
	case "excel":
		return extract.NewExcelSource(cfg.Pipeline.SourcePath, "", logger), nil
	case "api":
		if cfg.Pipeline.SourceURL == "" {
			return nil, errors.NewConfigError("api source requires pipeline.source_url", nil)
		}
		return extract.NewAPISource(cfg.Pipeline.SourceURL, nil, logger, retryOptions(cfg)...), nil
	case "database":
		return extract.NewDBSource(cfg.Database, cfg.Pipeline.SourceQuery, logger, retryOptions(cfg)...)
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unsupported source kind %q", cfg.Pipeline.Source), nil)
	}
}

// buildDestinations creates the load adapters: the database plus flat
// CSV/JSON exports under the output directory.
func buildDestinations(cfg *config.Config, logger *slog.Logger) ([]load.Destination, error) {
	dbLoader, err := load.NewDBLoader(cfg.Database, logger, retryOptions(cfg)...)
	if err != nil {
		return nil, err
	}
	return []load.Destination{
		dbLoader,
		load.NewCSVWriter(filepath.Join(cfg.Pipeline.OutputDir, "processed_sales.csv"), logger),
		load.NewJSONWriter(filepath.Join(cfg.Pipeline.OutputDir, "processed_sales.json"), logger),
	}, nil
}

// Start begins serving. Server errors cancel the provided context.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("source", a.Config.Pipeline.Source))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "close log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
