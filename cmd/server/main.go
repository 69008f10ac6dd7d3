package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cardworks/loyalty-cards-be/internal/blob"
	"github.com/cardworks/loyalty-cards-be/internal/config"
	"github.com/cardworks/loyalty-cards-be/internal/consumer"
	"github.com/cardworks/loyalty-cards-be/internal/handler"
	"github.com/cardworks/loyalty-cards-be/internal/ingest"
	"github.com/cardworks/loyalty-cards-be/internal/queue"
	"github.com/cardworks/loyalty-cards-be/internal/registry"
	"github.com/cardworks/loyalty-cards-be/internal/server"
	"github.com/cardworks/loyalty-cards-be/internal/storage"
	"github.com/cardworks/loyalty-cards-be/internal/validate"
	"github.com/cardworks/loyalty-cards-be/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	ctx := context.Background()
	log.Info(ctx, "Starting application")

	store, closeStore, err := storage.NewFromConfig(ctx, cfg.Store)
	if err != nil {
		log.Fatal(ctx, "Failed to initialize record store",
			"provider", cfg.Store.Provider,
			"error", err,
		)
	}
	log.Info(ctx, "Record store initialized",
		"provider", cfg.Store.Provider,
	)

	blobs, err := blob.NewFromConfig(cfg.Blob)
	if err != nil {
		log.Fatal(ctx, "Failed to initialize blob store",
			"provider", cfg.Blob.Provider,
			"error", err,
		)
	}

	transport, err := queue.NewFromConfig(cfg.Queue, log)
	if err != nil {
		log.Fatal(ctx, "Failed to initialize queue transport",
			"provider", cfg.Queue.Provider,
			"error", err,
		)
	}
	log.Info(ctx, "Queue transport initialized",
		"provider", cfg.Queue.Provider,
	)

	validator, err := validate.NewCreateCardValidator()
	if err != nil {
		log.Fatal(ctx, "Failed to compile validation schema",
			"error", err,
		)
	}

	cardRegistry := registry.New(store, validator, log)
	pipeline := ingest.NewPipeline(blobs, validator, transport, cfg.Ingest.BatchSize, log)
	cardConsumer := consumer.New(cardRegistry, log)
	log.Info(ctx, "Services initialized")

	if err := transport.Start(ctx, cardConsumer); err != nil {
		log.Fatal(ctx, "Failed to start queue transport",
			"error", err,
		)
	}

	cardHandler := handler.NewCardHandler(cardRegistry, pipeline, cfg.Store.PageLimit, cfg.Store.MaxLimit, log)
	healthHandler := handler.NewHealthHandler()

	srv := server.New(cfg, log, cardHandler, healthHandler)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	log.Info(ctx, "Application started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting new HTTP requests first, then drain the queue, then
	// release the store connection.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "HTTP server shutdown error",
			"error", err,
		)
	}

	if err := transport.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "Queue transport shutdown error",
			"error", err,
		)
	}

	if err := closeStore(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "Record store close error",
			"error", err,
		)
	}

	log.Info(ctx, "Application stopped gracefully")
}
