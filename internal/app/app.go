// Package app wires configuration into the running service.
package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"RecipeRadar/internal/config"
	"RecipeRadar/internal/dedup"
	"RecipeRadar/internal/httpapi"
	"RecipeRadar/internal/infrastructure/cms"
	"RecipeRadar/internal/infrastructure/instagram"
	"RecipeRadar/internal/infrastructure/processor"
	"RecipeRadar/internal/infrastructure/rss"
	"RecipeRadar/internal/infrastructure/storage"
	"RecipeRadar/internal/infrastructure/tiktok"
	"RecipeRadar/internal/logging"
	"RecipeRadar/internal/metrics"
	"RecipeRadar/internal/monitor"
	"RecipeRadar/internal/ports"
	"RecipeRadar/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application owns the orchestrator, the HTTP server, and the optional
// database handle.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	db           *sql.DB
	orchestrator *usecase.Orchestrator
	server       *httpapi.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var db *sql.DB
	if cfg.Database.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
	}
	repository := storage.NewPostgresRepository(db)

	runners := buildRunners(cfg, baseLogger)
	coordinator := monitor.NewCoordinator(runners, baseLogger.With("component", "coordinator"))

	deduper := dedup.NewService(cfg.Dedup.SimilarityThreshold, cfg.Dedup.HistoryCap,
		baseLogger.With("component", "dedup"))
	warmUpDedup(deduper, repository, cfg.Dedup.HistoryCap, baseLogger)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	orchestrator := usecase.NewOrchestrator(usecase.Deps{
		Coordinator: coordinator,
		Processor:   processor.New(cfg.Processing, cfg.AutoMode, baseLogger),
		Dedup:       deduper,
		Publisher:   cms.New(cfg.CMS, baseLogger),
		Repository:  repository,
		Metrics:     collector,
		Interval:    cfg.CycleInterval.Std(),
		Logger:      baseLogger,
	})

	server := httpapi.New(cfg.API.Addr, orchestrator, registry, baseLogger)

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		db:           db,
		orchestrator: orchestrator,
		server:       server,
	}, nil
}

func buildRunners(cfg config.Config, logger *slog.Logger) []*monitor.Runner {
	var adapters []ports.Monitor

	adapters = append(adapters, tiktok.New(cfg.Platforms.TikTok, cfg.Scraping))
	adapters = append(adapters, instagram.New(cfg.Platforms.Instagram, cfg.Scraping))
	if len(cfg.Platforms.RSS.FeedURLs) > 0 {
		adapters = append(adapters, rss.New(cfg.Platforms.RSS, cfg.Scraping))
	}

	runners := make([]*monitor.Runner, 0, len(adapters))
	for _, adapter := range adapters {
		runners = append(runners, monitor.NewRunner(adapter, cfg.Thresholds,
			logger.With("monitor", adapter.Name())))
	}
	return runners
}

// warmUpDedup seeds the fingerprint set from storage so restarts do not
// republish recipes detected in earlier runs.
func warmUpDedup(deduper *dedup.Service, repository ports.RecipeRepository, limit int, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fingerprints, err := repository.KnownFingerprints(ctx, limit)
	if err != nil {
		logger.Warn("dedup warm-up failed, starting cold", "error", err)
		return
	}
	if len(fingerprints) > 0 {
		deduper.WarmUp(fingerprints)
		logger.Info("dedup warm-up done", "fingerprints", len(fingerprints))
	}
}

// Run starts the cycle loop and serves HTTP until the context ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.orchestrator.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case <-ctx.Done():
		a.shutdown()
		return nil
	}
}

func (a *Application) shutdown() {
	a.orchestrator.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown failed", "error", err)
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("database close failed", "error", err)
		}
	}
}
