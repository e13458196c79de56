package clients

import (
	"context"

	"marketplace-sync-service/internal/models"
)

// CatalogClient defines the operations every marketplace client must implement.
// UpdateStocks and UpdatePrices split their input into batches at the
// endpoint's documented ceiling and submit the batches sequentially; both
// return the number of batches submitted before the first failure.
type CatalogClient interface {
	// Target returns the sync target this client writes to
	Target() models.TargetType

	// ListOfferIDs pages through the product listing endpoint and collects
	// every offer identifier in the catalog
	ListOfferIDs(ctx context.Context) ([]string, error)

	// UpdateStocks submits stock records in batches
	UpdateStocks(ctx context.Context, stocks []StockRecord) (int, error)

	// UpdatePrices submits price records in batches
	UpdatePrices(ctx context.Context, prices []PriceRecord) (int, error)
}

// StockRecord is a marketplace-agnostic stock update for one offer
type StockRecord struct {
	OfferID  string `json:"offerId"`
	Quantity int    `json:"quantity"`
}

// PriceRecord is a marketplace-agnostic price update for one offer.
// Price is a digits-only string, normalized from the supplier feed.
type PriceRecord struct {
	OfferID string `json:"offerId"`
	Price   string `json:"price"`
}
