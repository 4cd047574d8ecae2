package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/lead-intake/internal/api/router"
	"github.com/wolfman30/lead-intake/internal/app/bootstrap"
	appconfig "github.com/wolfman30/lead-intake/internal/config"
	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/internal/observability/metrics"
	"github.com/wolfman30/lead-intake/internal/security"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := appconfig.Load()
	if err != nil {
		var cfgErr *appconfig.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "refusing to start: %v\n", cfgErr)
		} else {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		}
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead-intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	handler, cleanup, err := buildApp(ctx, cfg, prometheus.NewRegistry(), logger)
	cancel()
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildApp wires the lead webhook and returns the root handler plus a func that
// releases the store and Redis connections.
func buildApp(ctx context.Context, cfg *appconfig.Config, reg *prometheus.Registry, logger *logging.Logger) (http.Handler, func(), error) {
	store, closeStore, err := bootstrap.BuildStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	limiter := bootstrap.BuildLimiter(redisClient, cfg, logger)

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ingestMetrics := metrics.NewIngestionMetrics(reg)

	pipeline, err := leads.NewPipeline(leads.PipelineConfig{
		Gate:         security.NewAccessGate(cfg.AllowedOrigins, cfg.APIKeys),
		Limiter:      limiter,
		Freshness:    security.NewFreshnessChecker(cfg.TimestampTolerance),
		Secret:       []byte(cfg.WebhookSecret),
		Store:        store,
		StoreTimeout: cfg.StoreTimeout,
		Metrics:      ingestMetrics,
		Logger:       logger,
	})
	if err != nil {
		closeStore()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, nil, err
	}

	handler := router.New(&router.Config{
		Logger:         logger,
		LeadsHandler:   leads.NewHandler(pipeline, store, ingestMetrics, cfg.MaxBodyBytes, logger),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	cleanup := func() {
		closeStore()
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}
	return handler, cleanup, nil
}
