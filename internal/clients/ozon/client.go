package ozon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"marketplace-sync-service/internal/clients"
	"marketplace-sync-service/internal/models"
)

const (
	defaultBaseURL = "https://api-seller.ozon.ru"

	listPageSize = 1000

	// Documented maximums per write request
	stockBatchSize = 100
	priceBatchSize = 1000
)

// Client talks to the Ozon seller API
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	apiKey     string
}

// NewClient creates a new Ozon seller API client
func NewClient(clientID, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		clientID:   clientID,
		apiKey:     apiKey,
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint, used in tests
func NewClientWithBaseURL(clientID, apiKey, baseURL string) *Client {
	c := NewClient(clientID, apiKey)
	c.baseURL = baseURL
	return c
}

// Target returns the sync target this client writes to
func (c *Client) Target() models.TargetType {
	return models.TargetOzon
}

// ListOfferIDs pages through v2/product/list until the reported total is
// reached and returns every offer_id in the seller's catalog
func (c *Client) ListOfferIDs(ctx context.Context) ([]string, error) {
	var offerIDs []string
	lastID := ""
	for {
		page, err := c.listProducts(ctx, lastID)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			offerIDs = append(offerIDs, item.OfferID)
		}
		lastID = page.LastID
		if len(offerIDs) >= page.Total || len(page.Items) == 0 {
			break
		}
	}
	return offerIDs, nil
}

// UpdateStocks submits stock records in batches of at most 100
func (c *Client) UpdateStocks(ctx context.Context, stocks []clients.StockRecord) (int, error) {
	batches := 0
	for _, batch := range clients.Chunk(stocks, stockBatchSize) {
		items := make([]stockItem, 0, len(batch))
		for _, s := range batch {
			items = append(items, stockItem{OfferID: s.OfferID, Stock: s.Quantity})
		}
		payload := map[string]interface{}{"stocks": items}
		if err := c.doRequest(ctx, http.MethodPost, "/v1/product/import/stocks", payload, nil); err != nil {
			return batches, fmt.Errorf("failed to update stocks: %w", err)
		}
		batches++
	}
	return batches, nil
}

// UpdatePrices submits price records in batches of at most 1000
func (c *Client) UpdatePrices(ctx context.Context, prices []clients.PriceRecord) (int, error) {
	batches := 0
	for _, batch := range clients.Chunk(prices, priceBatchSize) {
		items := make([]priceItem, 0, len(batch))
		for _, p := range batch {
			items = append(items, priceItem{
				AutoActionEnabled: "UNKNOWN",
				CurrencyCode:      "RUB",
				OfferID:           p.OfferID,
				OldPrice:          "0",
				Price:             p.Price,
			})
		}
		payload := map[string]interface{}{"prices": items}
		if err := c.doRequest(ctx, http.MethodPost, "/v1/product/import/prices", payload, nil); err != nil {
			return batches, fmt.Errorf("failed to update prices: %w", err)
		}
		batches++
	}
	return batches, nil
}

// listProducts fetches a single catalog page starting after lastID
func (c *Client) listProducts(ctx context.Context, lastID string) (*productListResult, error) {
	payload := map[string]interface{}{
		"filter": map[string]interface{}{
			"visibility": "ALL",
		},
		"last_id": lastID,
		"limit":   listPageSize,
	}

	var response struct {
		Result productListResult `json:"result"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/v2/product/list", payload, &response); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &response.Result, nil
}

// doRequest performs an authenticated HTTP request and decodes the response into out
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

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
		return &clients.StatusError{Status: resp.StatusCode, URL: c.baseURL + path, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response from %s: %w", path, err)
		}
	}
	return nil
}

// Ozon data structures
type productListResult struct {
	Items  []productListItem `json:"items"`
	Total  int               `json:"total"`
	LastID string            `json:"last_id"`
}

type productListItem struct {
	ProductID int64  `json:"product_id"`
	OfferID   string `json:"offer_id"`
}

type stockItem struct {
	OfferID string `json:"offer_id"`
	Stock   int    `json:"stock"`
}

type priceItem struct {
	AutoActionEnabled string `json:"auto_action_enabled"`
	CurrencyCode      string `json:"currency_code"`
	OfferID           string `json:"offer_id"`
	OldPrice          string `json:"old_price"`
	Price             string `json:"price"`
}
