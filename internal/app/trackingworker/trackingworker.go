// Package trackingworker consumes tracking events from the queue and flips
// the corresponding flags on the attempt ledger.
package trackingworker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/config"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/rabbitmq"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/services/tracking"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/storage/repository"
)

// App is the standalone tracking worker binary.
type App struct {
	trackingService *tracking.Service
	conn            *amqp.Connection
	ch              *amqp.Channel
	db              *repository.Storage
	logger          *slog.Logger
}

// New creates the tracking worker application.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetTrackingQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	return &App{
		trackingService: tracking.New(db, logger),
		conn:            conn,
		ch:              ch,
		db:              db,
		logger:          logger,
	}, nil
}

// Run consumes the tracking queue until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.TrackingQueue, a.trackingService.HandleMessage); err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}
	a.logger.Info("tracking worker consuming", slog.String("queue", rabbitmq.TrackingQueue))

	<-ctx.Done()

	a.logger.Info("shutting down tracking worker")
	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
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
