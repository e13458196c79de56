package services

import (
	"marketplace-sync-service/internal/clients"
	"marketplace-sync-service/internal/clients/market"
	"marketplace-sync-service/internal/clients/ozon"
	"marketplace-sync-service/internal/config"
	"marketplace-sync-service/internal/models"
)

// TargetsFromConfig builds a marketplace client per fully configured target.
// Targets without credentials are skipped; config.Validate catches partial
// configurations before this point.
func TargetsFromConfig(cfg *config.Config) []clients.CatalogClient {
	var targets []clients.CatalogClient

	if cfg.Ozon.Enabled() {
		targets = append(targets, ozon.NewClient(cfg.Ozon.ClientID, cfg.Ozon.APIKey))
	}

	if cfg.Market.Enabled() {
		if cfg.Market.FBS.Configured() {
			targets = append(targets, market.NewClient(
				cfg.Market.Token, cfg.Market.FBS.CampaignID, cfg.Market.FBS.WarehouseID, models.TargetMarketFBS))
		}
		if cfg.Market.DBS.Configured() {
			targets = append(targets, market.NewClient(
				cfg.Market.Token, cfg.Market.DBS.CampaignID, cfg.Market.DBS.WarehouseID, models.TargetMarketDBS))
		}
	}

	return targets
}
