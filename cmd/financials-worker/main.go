package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/CohortInsights/financials/internal/amqp"
	"github.com/CohortInsights/financials/internal/config"
	"github.com/CohortInsights/financials/internal/drive"
	"github.com/CohortInsights/financials/internal/ingest"
	"github.com/CohortInsights/financials/internal/log"
	"github.com/CohortInsights/financials/internal/services"
	"github.com/CohortInsights/financials/internal/storage"
	"github.com/CohortInsights/financials/internal/worker"
)

func main() {
	// Load .env for local development; production sets real env vars.
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: "worker"})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	statements, err := drive.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Drive statement store", "error", err)
		os.Exit(1)
	}

	loader := ingest.NewLoader(statements, logger)
	// The worker holds no chart cache; the API's cache expires on its TTL.
	ingestSvc := services.NewIngestService(loader, repo, nil, logger)
	rebuildWorker := worker.NewRebuildWorker(ingestSvc, cfg.IngestInterval, logger)

	g, ctx := errgroup.WithContext(ctx)

	// Queue consumption is optional: the periodic loop alone keeps data fresh,
	// just without on-demand rebuilds from the API.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeRebuild(ctx, func(msg *amqp.RebuildMessage) error {
				return rebuildWorker.HandleMessage(ctx, msg)
			})
		})
		logger.Info("Consuming rebuild jobs", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("No AMQP_URL configured - running periodic rebuilds only")
	}

	g.Go(func() error {
		return rebuildWorker.RunPeriodic(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
