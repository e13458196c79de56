// cmd/sync/main.go
// One-shot job entrypoint: run a full sync across all targets and exit
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"marketplace-sync-service/internal/config"
	"marketplace-sync-service/internal/feed"
	"marketplace-sync-service/internal/models"
	"marketplace-sync-service/internal/services"
)

func main() {
	log.Println("=== Starting Sync Job ===")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: configuration error: %v", err)
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	fetcher := feed.NewFetcher(cfg.FeedURL)
	targets := services.TargetsFromConfig(cfg)
	log.Printf("Configured %d marketplace target(s)", len(targets))

	syncService := services.NewService(fetcher, targets, logger, cfg.SyncTimeout)

	run, err := syncService.RunOnce(context.Background(), models.TriggerScheduled)
	if err != nil {
		log.Fatalf("FATAL: failed to start sync run: %v", err)
	}

	log.Printf("=== Sync Completed ===")
	log.Printf("Feed records: %d", run.FeedRecords)
	for _, report := range run.Targets {
		if report.Error != "" {
			log.Printf("Target %s FAILED: %s", report.Target, report.Error)
			continue
		}
		log.Printf("Target %s: offers=%d stocks=%d (batches=%d, in stock=%d) prices=%d (batches=%d)",
			report.Target, report.OffersSeen, report.StocksSubmitted, report.StockBatches,
			report.InStock, report.PricesSubmitted, report.PriceBatches)
	}

	if run.Status == models.RunStatusFailed {
		log.Printf("ERROR: sync run failed: %s", run.ErrorMessage)
		os.Exit(1)
	}

	log.Println("Sync job completed successfully")
}
