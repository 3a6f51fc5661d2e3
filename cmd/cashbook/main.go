package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"cashbook/internal/backend"
	"cashbook/internal/cache"
	"cashbook/internal/cli"
	apphttp "cashbook/internal/http"
	"cashbook/internal/middleware/ratelimit"
	"cashbook/internal/services"
	"cashbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	manager := cache.NewManager()
	manager.StartCleanup(time.Minute)

	ledgerSvc := services.NewLedgerService(res.Backend, services.LedgerOptions{
		CacheTTL:  cfg.CacheTTL,
		CacheSize: cfg.CacheSize,
	}, manager)

	srv := apphttp.NewServer(":"+cfg.Port, ledgerSvc, apphttp.Options{
		Logger:    logger,
		RateLimit: ratelimit.DefaultConfig(),
		Ready:     res.Ready,
	})

	amqpClient := cli.NewAMQPClient(logger, cfg)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Error closing AMQP client", "error", err)
			}
		}
		manager.Stop()
		if err := res.Close(); err != nil {
			logger.Error("Error closing backend", "error", err)
		}
	})

	if amqpClient != nil {
		invalidations := worker.NewInvalidationWorker(amqpClient, ledgerSvc)
		go func() {
			if err := invalidations.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Invalidation consumer stopped", "error", err)
			}
		}()
	}

	logger.Info("Starting cashbook server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"cache_ttl", cfg.CacheTTL,
		"amqp", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
