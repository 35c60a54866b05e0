package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/reentry/internal/api"
	"github.com/saturnino-fabrica-de-software/reentry/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/reentry/internal/audit"
	"github.com/saturnino-fabrica-de-software/reentry/internal/config"
	"github.com/saturnino-fabrica-de-software/reentry/internal/face"
	"github.com/saturnino-fabrica-de-software/reentry/internal/service"
	"github.com/saturnino-fabrica-de-software/reentry/internal/webhook"
	"github.com/saturnino-fabrica-de-software/reentry/internal/ws"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLoggerWithLevel(os.Stdout, cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting Reentry API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.StoreBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := face.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer rt.Close()

	// Models must be reachable before accepting traffic
	if err := rt.Pipeline.Check(ctx); err != nil {
		return fmt.Errorf("face models unavailable: %w", err)
	}

	hub := ws.NewHub()
	publishers := service.Publishers{
		hub,
		audit.NewSlogLogger(logger, cfg.Detector+"/"+cfg.Embedder),
	}

	if cfg.WebhookURL != "" {
		notifier := webhook.NewNotifier(webhook.Config{
			URL:         cfg.WebhookURL,
			Secret:      cfg.WebhookSecret,
			Events:      cfg.WebhookEvents,
			MaxAttempts: cfg.WebhookMaxAttempts,
		}, logger)
		go notifier.Run(ctx)
		publishers = append(publishers, notifier)
	}
	rt.Service.WithEvents(publishers)

	router := api.NewRouter(logger, &api.Dependencies{
		FaceService: rt.Service,
		Hub:         hub,
		ReadyChecks: map[string]handler.Check{
			"models":   rt.Pipeline.Check,
			"database": rt.CheckDatabase,
		},
		Version: version,
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening",
			slog.String("addr", addr),
			slog.Int("faces", rt.Store.Count()),
		)
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}
