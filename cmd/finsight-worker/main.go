package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finsight/internal/amqp"
	"finsight/internal/config"
	"finsight/internal/storage"
	"finsight/internal/worker"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required for the archive worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("failed to open archive database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			slog.Error("archive database close failed", "error", err)
		}
	}()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Error("AMQP close failed", "error", err)
		}
	}()

	archiveWorker := worker.NewArchiveWorker(worker.NewStoreArchiver(repo), cfg.SessionTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	go archiveWorker.RunIdleSweep(ctx, cfg.SweepInterval)

	slog.Info("starting archive worker",
		"queue", cfg.AMQPQueue,
		"sweep_interval", cfg.SweepInterval.String(),
		"session_ttl", cfg.SessionTTL.String())

	if err := client.ConsumeAnalysisEvents(ctx, func(event *amqp.AnalysisEvent) error {
		return archiveWorker.HandleEvent(ctx, event)
	}); err != nil && ctx.Err() == nil {
		slog.Error("consumer failed", "error", err)
		os.Exit(1)
	}

	slog.Info("worker stopped")
}
