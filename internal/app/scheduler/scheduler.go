// Package scheduler runs the reminder orchestrator on a daily cadence for
// deployments without an external cron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/config"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/email"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/orchestrator"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/policy"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/renderer"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/cache"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/repository"
)

// runInterval is the cadence between orchestration passes. Dedup through
// the attempt ledger makes an extra pass harmless, so the exact interval
// is not load-bearing.
const runInterval = 24 * time.Hour

// App is the standalone scheduler binary.
type App struct {
	orchestratorService *orchestrator.Service
	db                  *repository.Storage
	logger              *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		if err := db.CheckDatabaseReady(ctx); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New creates the scheduler application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	provider, err := email.NewProvider(cfg.Email, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build email provider: %w", err)
	}

	rendererService := renderer.New(db, cacheRedis, cfg.Reminders, logger)
	orchestratorService := orchestrator.New(db, rendererService, provider,
		policy.New(cfg.Reminders.Offsets), cacheRedis, cfg.Reminders, cfg.Email, logger)

	return &App{
		orchestratorService: orchestratorService,
		db:                  db,
		logger:              logger,
	}, nil
}

// Run triggers one pass at startup and then once per interval until ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	a.runOnce(ctx)

	ticker := time.NewTicker(runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.runOnce(ctx)
		case <-ctx.Done():
			a.logger.Info("shutting down scheduler")
			if err := a.db.DB.Close(); err != nil {
				a.logger.Error("failed to close storage", sl.Err(err))
			}
			return nil
		}
	}
}

func (a *App) runOnce(ctx context.Context) {
	results, err := a.orchestratorService.Run(ctx, time.Now())
	if err != nil {
		if errors.Is(err, orchestrator.ErrRunInProgress) {
			a.logger.Info("skipping pass, another run holds the lock")
			return
		}
		a.logger.Error("reminder run failed", sl.Err(err))
		return
	}
	for _, r := range results {
		a.logger.Info("offset summary",
			slog.Int("offset", r.Offset),
			slog.Int("sent", r.SentCount),
			slog.Int("deduped", r.DedupedCount),
			slog.Int("skipped", r.SkippedCount),
			slog.Int("errors", len(r.Errors)))
	}
}
