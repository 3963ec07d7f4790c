// Package server assembles the HTTP API: storage, cache, the tracking event
// publisher and every service behind the routes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/config"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/email"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/rabbitmq"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/migrations"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/orchestrator"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/policy"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/preference"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/renderer"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/template"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/vehicle"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/cache"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/repository"
)

// App is the API server with its owned resources.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New connects every dependency and builds the router.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetTrackingQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	provider, err := email.NewProvider(cfg.Email, logger)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to build email provider: %w", err)
	}

	rendererService := renderer.New(db, cacheRedis, cfg.Reminders, logger)
	reminderPolicy := policy.New(cfg.Reminders.Offsets)
	orchestratorService := orchestrator.New(db, rendererService, provider,
		reminderPolicy, cacheRedis, cfg.Reminders, cfg.Email, logger)
	vehicleService := vehicle.New(db, cacheRedis, logger)
	preferenceService := preference.New(db, cfg.Reminders.Offsets, logger)
	templateService := template.New(db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Orchestrator: orchestratorService,
		Vehicle:      vehicleService,
		Preference:   preferenceService,
		Template:     templateService,
		Storage:      db,
		Channel:      ch,
		Reminders:    cfg.Reminders,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		closeResources(a.ch, a.conn, a.logger)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", closeErr))
		}
		return err
	}
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", slog.Any("err", err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", slog.Any("err", err))
		}
	}
}
