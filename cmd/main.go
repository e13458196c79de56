package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"marketplace-sync-service/internal/config"
	"marketplace-sync-service/internal/feed"
	"marketplace-sync-service/internal/handlers"
	"marketplace-sync-service/internal/middleware"
	"marketplace-sync-service/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize feed fetcher and marketplace targets
	fetcher := feed.NewFetcher(cfg.FeedURL)
	targets := services.TargetsFromConfig(cfg)
	log.Printf("Configured %d marketplace target(s)", len(targets))

	syncService := services.NewService(fetcher, targets, logger, cfg.SyncTimeout)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	syncHandler := handlers.NewSyncHandler(syncService)

	// Setup router
	router := setupRouter(logger, healthHandler, syncHandler)

	// Start server
	log.Printf("Marketplace Sync Service starting on port %s (env: %s)", cfg.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter configures the HTTP router
func setupRouter(logger *logrus.Logger, healthHandler *handlers.HealthHandler, syncHandler *handlers.SyncHandler) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestLogger(logger))

	// Health check
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		sync := v1.Group("/sync")
		{
			sync.GET("/targets", syncHandler.ListTargets)
			sync.GET("/runs", syncHandler.ListRuns)
			sync.POST("/runs", syncHandler.CreateRun)
			sync.GET("/runs/:id", syncHandler.GetRun)
		}
	}

	return router
}
