// financials-ingest runs one ingestion pass and exits: load statements from
// Google Drive (or a local directory), insert what is new, reapply the
// category rules. Useful for backfills and local development without the
// worker running.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/CohortInsights/financials/internal/amqp"
	"github.com/CohortInsights/financials/internal/config"
	"github.com/CohortInsights/financials/internal/drive"
	"github.com/CohortInsights/financials/internal/ingest"
	"github.com/CohortInsights/financials/internal/log"
	"github.com/CohortInsights/financials/internal/services"
	"github.com/CohortInsights/financials/internal/storage"
)

func main() {
	localDir := flag.String("local", "", "ingest from a local statements directory instead of Google Drive")
	flag.Parse()

	_ = godotenv.Load()

	logger := log.New(log.Config{Component: "ingest"})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var statements ingest.StatementStore
	if *localDir != "" {
		statements = ingest.NewDirStore(*localDir)
		logger.Info("Ingesting from local directory", "dir", *localDir)
	} else {
		statements, err = drive.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Drive statement store", "error", err)
			os.Exit(1)
		}
		logger.Info("Ingesting from Google Drive", "folder", cfg.DriveStatementsFolder)
	}

	loader := ingest.NewLoader(statements, logger)
	ingestSvc := services.NewIngestService(loader, repo, nil, logger)

	stats, err := ingestSvc.Rebuild(ctx)
	if err != nil {
		logger.Error("Ingestion failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Ingestion finished",
		"loaded", stats.Loaded,
		"inserted", stats.Inserted,
		"reassigned", stats.Reassigned)

	// Nudge the long-running worker so anything watching the queue knows the
	// data changed. Losing the nudge is fine; the next periodic rebuild is a
	// no-op over the same rows.
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Skipping rebuild notification", "error", err)
			return
		}
		defer client.Close()
		if err := client.PublishRebuild(ctx, amqp.JobReassign, "ingest CLI completed"); err != nil {
			logger.Warn("Failed to publish rebuild notification", "error", err)
		}
	}
}
