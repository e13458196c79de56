package services

import (
	"strconv"
	"strings"

	"marketplace-sync-service/internal/clients"
	"marketplace-sync-service/internal/feed"
)

// Sentinel quantity encodings used by the supplier feed. ">10" means in
// stock with the exact count unknown; "1" is the supplier's low-stock marker
// and is published as zero.
const (
	overstockSentinel = ">10"
	lowStockSentinel  = "1"
	overstockQuantity = 100
)

// NormalizeQuantity maps a feed quantity string to a stock count
func NormalizeQuantity(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	switch value {
	case overstockSentinel:
		return overstockQuantity, nil
	case lowStockSentinel:
		return 0, nil
	}
	quantity, err := strconv.Atoi(value)
	if err != nil {
		return 0, &clients.ParseError{Field: "quantity", Value: raw}
	}
	return quantity, nil
}

// NormalizePrice keeps the integer part of a feed price and strips every
// non-digit character: "5'990.00 руб." -> "5990". Input without digits
// before the decimal point yields an empty string.
func NormalizePrice(raw string) string {
	intPart, _, _ := strings.Cut(raw, ".")
	var digits strings.Builder
	for _, r := range intPart {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// BuildStockRecords reconciles the feed against the catalog's offer IDs.
// Every known offer appears in exactly one record: offers present in the
// feed carry their normalized quantity in feed order, the remainder is
// zeroed out in catalog order. Duplicate feed rows for the same code emit
// only the first occurrence.
func BuildStockRecords(remnants []feed.Remnant, offerIDs []string) ([]clients.StockRecord, error) {
	known := make(map[string]bool, len(offerIDs))
	for _, id := range offerIDs {
		known[id] = true
	}

	handled := make(map[string]bool, len(offerIDs))
	records := make([]clients.StockRecord, 0, len(offerIDs))
	for _, remnant := range remnants {
		if !known[remnant.Code] || handled[remnant.Code] {
			continue
		}
		quantity, err := NormalizeQuantity(remnant.Quantity)
		if err != nil {
			return nil, err
		}
		handled[remnant.Code] = true
		records = append(records, clients.StockRecord{OfferID: remnant.Code, Quantity: quantity})
	}

	for _, id := range offerIDs {
		if handled[id] {
			continue
		}
		handled[id] = true
		records = append(records, clients.StockRecord{OfferID: id, Quantity: 0})
	}
	return records, nil
}

// BuildPriceRecords maps feed prices onto known catalog offers. Offers
// absent from the feed get no price update, and rows whose price normalizes
// to an empty string are skipped.
func BuildPriceRecords(remnants []feed.Remnant, offerIDs []string) []clients.PriceRecord {
	known := make(map[string]bool, len(offerIDs))
	for _, id := range offerIDs {
		known[id] = true
	}

	handled := make(map[string]bool)
	var records []clients.PriceRecord
	for _, remnant := range remnants {
		if !known[remnant.Code] || handled[remnant.Code] {
			continue
		}
		handled[remnant.Code] = true
		price := NormalizePrice(remnant.Price)
		if price == "" {
			continue
		}
		records = append(records, clients.PriceRecord{OfferID: remnant.Code, Price: price})
	}
	return records
}
