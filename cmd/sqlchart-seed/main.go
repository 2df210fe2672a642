package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sqlchart/sqlchart/internal/demo/seed"
)

func main() {
	cfg, err := seed.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load seed config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("seeding sensor store",
		slog.String("path", cfg.Path),
		slog.Int("sensors", cfg.Sensors),
		slog.Int("readings", cfg.Readings),
		slog.Duration("interval", cfg.Interval),
		slog.Bool("reset", cfg.Reset),
	)
	if _, err := seed.Run(ctx, cfg, logger); err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}
