package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finsight/internal/amqp"
	"finsight/internal/analyzer"
	"finsight/internal/backend"
	"finsight/internal/cache"
	"finsight/internal/chat"
	"finsight/internal/config"
	apphttp "finsight/internal/http"
	"finsight/internal/services"
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

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		slog.Error("invalid session backend configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storeResult, err := backend.NewFactory(logger).CreateStore(ctx, backendCfg)
	if err != nil {
		slog.Error("failed to create session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storeResult.Cleanup(); err != nil {
			slog.Error("session store cleanup failed", "error", err)
		}
	}()

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		publisher = client
		slog.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		slog.Info("AMQP_URL not set, analysis events will not be published")
	}

	var chatClient *chat.Client
	if cfg.GeminiAPIKey != "" {
		chatClient = chat.NewClient(&chat.Config{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
		slog.Info("chat model enabled", "model", cfg.GeminiModel)
	} else {
		slog.Info("GEMINI_API_KEY not set, chat falls back to canned answers")
	}

	analyzerClient := analyzer.NewClient(&analyzer.Config{BaseURL: cfg.AnalyzerBaseURL})

	advisor := services.NewAdvisorService(storeResult.Store, analyzerClient, publisher, chatClient,
		chat.DemoFigures{Income: 25000, Expenses: 18000, Disposable: 7000})
	defer func() {
		if err := advisor.Close(); err != nil {
			slog.Error("advisor service close failed", "error", err)
		}
	}()

	cacheManager := cache.NewManager()
	if cleaner, ok := storeResult.Store.(cache.Cleaner); ok {
		cacheManager.Register(cleaner)
		cacheManager.StartCleanup(5 * time.Minute)
	}
	defer cacheManager.Stop()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:         ":" + cfg.Port,
		Advisor:      advisor,
		DemoUserID:   cfg.DemoUserID,
		DemoPassword: cfg.DemoPassword,
	})
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 120 * time.Second

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
		cancel()
	}()

	slog.Info("starting finsight server",
		"port", cfg.Port,
		"analyzer", cfg.AnalyzerBaseURL,
		"session_backend", cfg.SessionBackend)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("server stopped")
}
