package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"marketplace-sync-service/internal/clients"
	"marketplace-sync-service/internal/models"
)

const (
	defaultBaseURL = "https://api.partner.market.yandex.ru"

	listPageSize = 200

	// Documented maximums per write request
	stockBatchSize = 2000
	priceBatchSize = 500
)

// Client talks to the Yandex Market partner API for a single campaign.
// A campaign represents one fulfillment model (FBS or DBS); each has its
// own warehouse, so one client instance is created per campaign.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	campaignID  string
	warehouseID string
	target      models.TargetType
}

// NewClient creates a new campaign-scoped Yandex Market client
func NewClient(token, campaignID, warehouseID string, target models.TargetType) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultBaseURL,
		token:       token,
		campaignID:  campaignID,
		warehouseID: warehouseID,
		target:      target,
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint, used in tests
func NewClientWithBaseURL(token, campaignID, warehouseID string, target models.TargetType, baseURL string) *Client {
	c := NewClient(token, campaignID, warehouseID, target)
	c.baseURL = baseURL
	return c
}

// Target returns the sync target this client writes to
func (c *Client) Target() models.TargetType {
	return c.target
}

// ListOfferIDs pages through the campaign's offer-mapping-entries until the
// API stops returning a next-page token and collects every shop SKU
func (c *Client) ListOfferIDs(ctx context.Context) ([]string, error) {
	var offerIDs []string
	pageToken := ""
	for {
		page, err := c.listOfferMappings(ctx, pageToken)
		if err != nil {
			return nil, err
		}
		for _, entry := range page.OfferMappingEntries {
			offerIDs = append(offerIDs, entry.Offer.ShopSKU)
		}
		pageToken = page.Paging.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return offerIDs, nil
}

// UpdateStocks submits stock records in batches of at most 2000 skus
func (c *Client) UpdateStocks(ctx context.Context, stocks []clients.StockRecord) (int, error) {
	updatedAt := time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)

	batches := 0
	for _, batch := range clients.Chunk(stocks, stockBatchSize) {
		skus := make([]skuStock, 0, len(batch))
		for _, s := range batch {
			skus = append(skus, skuStock{
				SKU:         s.OfferID,
				WarehouseID: c.warehouseID,
				Items: []stockItem{{
					Count:     s.Quantity,
					Type:      "FIT",
					UpdatedAt: updatedAt,
				}},
			})
		}
		payload := map[string]interface{}{"skus": skus}
		path := fmt.Sprintf("/campaigns/%s/offers/stocks", c.campaignID)
		if err := c.doRequest(ctx, http.MethodPut, path, nil, payload, nil); err != nil {
			return batches, fmt.Errorf("failed to update stocks: %w", err)
		}
		batches++
	}
	return batches, nil
}

// UpdatePrices submits price records in batches of at most 500 offers
func (c *Client) UpdatePrices(ctx context.Context, prices []clients.PriceRecord) (int, error) {
	batches := 0
	for _, batch := range clients.Chunk(prices, priceBatchSize) {
		offers := make([]offerPrice, 0, len(batch))
		for _, p := range batch {
			value, err := strconv.Atoi(p.Price)
			if err != nil {
				return batches, &clients.ParseError{Field: "price", Value: p.Price}
			}
			offers = append(offers, offerPrice{
				ID: p.OfferID,
				Price: priceValue{
					Value:      value,
					CurrencyID: "RUR",
				},
			})
		}
		payload := map[string]interface{}{"offers": offers}
		path := fmt.Sprintf("/campaigns/%s/offer-prices/updates", c.campaignID)
		if err := c.doRequest(ctx, http.MethodPost, path, nil, payload, nil); err != nil {
			return batches, fmt.Errorf("failed to update prices: %w", err)
		}
		batches++
	}
	return batches, nil
}

// listOfferMappings fetches a single page of the campaign's offer mappings
func (c *Client) listOfferMappings(ctx context.Context, pageToken string) (*offerMappingsResult, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(listPageSize))
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}

	var response struct {
		Result offerMappingsResult `json:"result"`
	}
	path := fmt.Sprintf("/campaigns/%s/offer-mapping-entries", c.campaignID)
	if err := c.doRequest(ctx, http.MethodGet, path, params, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list offer mappings: %w", err)
	}
	return &response.Result, nil
}

// doRequest performs a bearer-authenticated HTTP request and decodes the response into out
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body interface{}, out interface{}) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &clients.StatusError{Status: resp.StatusCode, URL: fullURL, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response from %s: %w", path, err)
		}
	}
	return nil
}

// Yandex Market data structures
type offerMappingsResult struct {
	OfferMappingEntries []offerMappingEntry `json:"offerMappingEntries"`
	Paging              paging              `json:"paging"`
}

type offerMappingEntry struct {
	Offer offer `json:"offer"`
}

type offer struct {
	ShopSKU string `json:"shopSku"`
}

type paging struct {
	NextPageToken string `json:"nextPageToken"`
}

type skuStock struct {
	SKU         string      `json:"sku"`
	WarehouseID string      `json:"warehouseId"`
	Items       []stockItem `json:"items"`
}

type stockItem struct {
	Count     int    `json:"count"`
	Type      string `json:"type"`
	UpdatedAt string `json:"updatedAt"`
}

type offerPrice struct {
	ID    string     `json:"id"`
	Price priceValue `json:"price"`
}

type priceValue struct {
	Value      int    `json:"value"`
	CurrencyID string `json:"currencyId"`
}
