package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/saturnino-fabrica-de-software/idverify/internal/api"
	"github.com/saturnino-fabrica-de-software/idverify/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/idverify/internal/audit"
	"github.com/saturnino-fabrica-de-software/idverify/internal/config"
	"github.com/saturnino-fabrica-de-software/idverify/internal/face"
	"github.com/saturnino-fabrica-de-software/idverify/internal/imaging"
	"github.com/saturnino-fabrica-de-software/idverify/internal/service"
)

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
	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting idverify API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("region_detector", cfg.RegionDetector),
		slog.String("face_verifier", cfg.FaceVerifier),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Model handles are built once and shared by every request
	auditLogger := audit.NewSlogLogger(logger)
	providers, err := face.NewProviderSet(ctx, cfg, auditLogger)
	if err != nil {
		return fmt.Errorf("failed to create providers: %w", err)
	}
	providerName := face.Name(cfg)

	fetcher := imaging.NewFetcher(cfg.FetchTimeout, cfg.MaxImageBytes)

	verification := service.NewVerificationService(fetcher, providers, logger).
		WithAuditLogger(auditLogger).
		WithProviderName(providerName)
	comparison := service.NewComparisonService(fetcher, providers, logger).
		WithTargetLayer(cfg.GradCAMLayer).
		WithAuditLogger(auditLogger).
		WithProviderName(providerName)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Verification: verification,
		Comparison:   comparison,
		RateLimit: middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		},
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")

	return nil
}
