package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/app/trackingworker"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting tracking worker", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := trackingworker.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize tracking worker", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("tracking worker stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("tracking worker stopped gracefully")
}
