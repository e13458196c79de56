package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Default URL of the supplier's zipped stock workbook
const defaultFeedURL = "https://timeworld.ru/upload/files/ostatki.zip"

// OzonConfig holds credentials for the Ozon seller API
type OzonConfig struct {
	ClientID string
	APIKey   string
}

// Enabled reports whether the Ozon target is fully configured
func (c OzonConfig) Enabled() bool {
	return c.ClientID != "" && c.APIKey != ""
}

// CampaignConfig identifies one Yandex Market campaign and its warehouse
type CampaignConfig struct {
	CampaignID  string
	WarehouseID string
}

// Configured reports whether both campaign identifiers are set
func (c CampaignConfig) Configured() bool {
	return c.CampaignID != "" && c.WarehouseID != ""
}

// MarketConfig holds credentials for the Yandex Market partner API and its
// two campaigns (FBS and DBS fulfillment models)
type MarketConfig struct {
	Token string
	FBS   CampaignConfig
	DBS   CampaignConfig
}

// Enabled reports whether the Market targets are usable at all
func (c MarketConfig) Enabled() bool {
	return c.Token != ""
}

// Config holds all configuration for the marketplace sync service
type Config struct {
	// Server
	Port        string
	Environment string

	// Source feed
	FeedURL string

	// Sync Settings
	SyncTimeout time.Duration

	// Marketplace targets
	Ozon   OzonConfig
	Market MarketConfig
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8099"),
		Environment: getEnv("ENVIRONMENT", "development"),

		FeedURL: getEnv("STOCK_FEED_URL", defaultFeedURL),

		SyncTimeout: getEnvAsDuration("SYNC_TIMEOUT", 30*time.Minute),

		Ozon: OzonConfig{
			ClientID: getEnv("CLIENT_ID", ""),
			APIKey:   getEnv("SELLER_TOKEN", ""),
		},
		Market: MarketConfig{
			Token: getEnv("MARKET_TOKEN", ""),
			FBS: CampaignConfig{
				CampaignID:  getEnv("FBS_ID", ""),
				WarehouseID: getEnv("WAREHOUSE_FBS_ID", ""),
			},
			DBS: CampaignConfig{
				CampaignID:  getEnv("DBS_ID", ""),
				WarehouseID: getEnv("WAREHOUSE_DBS_ID", ""),
			},
		},
	}
}

// Validate checks that at least one marketplace target is fully configured
// and that no target is configured halfway. An absent target is fine; a
// partial one is a deployment mistake worth failing fast on.
func (c *Config) Validate() error {
	var problems []string

	if (c.Ozon.ClientID == "") != (c.Ozon.APIKey == "") {
		problems = append(problems, "Ozon target needs both CLIENT_ID and SELLER_TOKEN")
	}

	if c.Market.Enabled() {
		if !c.Market.FBS.Configured() && !c.Market.DBS.Configured() {
			problems = append(problems, "MARKET_TOKEN is set but no campaign is configured (FBS_ID/WAREHOUSE_FBS_ID or DBS_ID/WAREHOUSE_DBS_ID)")
		}
		if (c.Market.FBS.CampaignID == "") != (c.Market.FBS.WarehouseID == "") {
			problems = append(problems, "FBS campaign needs both FBS_ID and WAREHOUSE_FBS_ID")
		}
		if (c.Market.DBS.CampaignID == "") != (c.Market.DBS.WarehouseID == "") {
			problems = append(problems, "DBS campaign needs both DBS_ID and WAREHOUSE_DBS_ID")
		}
	} else if c.Market.FBS.Configured() || c.Market.DBS.Configured() {
		problems = append(problems, "Market campaigns are configured but MARKET_TOKEN is missing")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	if !c.Ozon.Enabled() && !c.Market.Enabled() {
		return fmt.Errorf("no marketplace target configured")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
