package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-sync-service/internal/clients"
	"marketplace-sync-service/internal/models"
)

func TestListOfferIDsPagination(t *testing.T) {
	pages := map[string]struct {
		skus []string
		next string
	}{
		"":   {skus: []string{"sku-1", "sku-2"}, next: "p2"},
		"p2": {skus: []string{"sku-3"}, next: ""},
	}
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/campaigns/101/offer-mapping-entries", r.URL.Path)
		require.Equal(t, "200", r.URL.Query().Get("limit"))
		gotAuth = r.Header.Get("Authorization")

		page := pages[r.URL.Query().Get("page_token")]
		entries := make([]map[string]interface{}, 0)
		for _, sku := range page.skus {
			entries = append(entries, map[string]interface{}{
				"offer": map[string]string{"shopSku": sku},
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{
				"offerMappingEntries": entries,
				"paging":              map[string]string{"nextPageToken": page.next},
			},
		})
	}))
	defer server.Close()

	client := NewClientWithBaseURL("token-1", "101", "7001", models.TargetMarketFBS, server.URL)
	offerIDs, err := client.ListOfferIDs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"sku-1", "sku-2", "sku-3"}, offerIDs)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, models.TargetMarketFBS, client.Target())
}

func TestUpdateStocksWireFormat(t *testing.T) {
	var payload struct {
		Skus []struct {
			SKU         string `json:"sku"`
			WarehouseID string `json:"warehouseId"`
			Items       []struct {
				Count     int    `json:"count"`
				Type      string `json:"type"`
				UpdatedAt string `json:"updatedAt"`
			} `json:"items"`
		} `json:"skus"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/campaigns/101/offers/stocks", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("token", "101", "7001", models.TargetMarketDBS, server.URL)
	batches, err := client.UpdateStocks(context.Background(), []clients.StockRecord{
		{OfferID: "sku-1", Quantity: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, batches)

	require.Len(t, payload.Skus, 1)
	sku := payload.Skus[0]
	assert.Equal(t, "sku-1", sku.SKU)
	assert.Equal(t, "7001", sku.WarehouseID)
	require.Len(t, sku.Items, 1)
	assert.Equal(t, 100, sku.Items[0].Count)
	assert.Equal(t, "FIT", sku.Items[0].Type)

	updatedAt, err := time.Parse(time.RFC3339, sku.Items[0].UpdatedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), updatedAt, time.Minute)
}

func TestUpdateStocksBatching(t *testing.T) {
	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Skus []json.RawMessage `json:"skus"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		batchSizes = append(batchSizes, len(req.Skus))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	stocks := make([]clients.StockRecord, 2001)
	for i := range stocks {
		stocks[i] = clients.StockRecord{OfferID: fmt.Sprintf("sku-%d", i)}
	}

	client := NewClientWithBaseURL("token", "101", "7001", models.TargetMarketFBS, server.URL)
	batches, err := client.UpdateStocks(context.Background(), stocks)
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
	assert.Equal(t, []int{2000, 1}, batchSizes)
}

func TestUpdatePricesWireFormat(t *testing.T) {
	var payload struct {
		Offers []struct {
			ID    string `json:"id"`
			Price struct {
				Value      int    `json:"value"`
				CurrencyID string `json:"currencyId"`
			} `json:"price"`
		} `json:"offers"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/campaigns/101/offer-prices/updates", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("token", "101", "7001", models.TargetMarketFBS, server.URL)
	batches, err := client.UpdatePrices(context.Background(), []clients.PriceRecord{
		{OfferID: "sku-1", Price: "5990"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, batches)

	require.Len(t, payload.Offers, 1)
	assert.Equal(t, "sku-1", payload.Offers[0].ID)
	assert.Equal(t, 5990, payload.Offers[0].Price.Value)
	assert.Equal(t, "RUR", payload.Offers[0].Price.CurrencyID)
}

func TestUpdatePricesBatching(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prices := make([]clients.PriceRecord, 501)
	for i := range prices {
		prices[i] = clients.PriceRecord{OfferID: fmt.Sprintf("sku-%d", i), Price: "100"}
	}

	client := NewClientWithBaseURL("token", "101", "7001", models.TargetMarketFBS, server.URL)
	batches, err := client.UpdatePrices(context.Background(), prices)
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
	assert.Equal(t, 2, calls)
}

func TestUpdatePricesRejectsNonNumeric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an unparsable price")
	}))
	defer server.Close()

	client := NewClientWithBaseURL("token", "101", "7001", models.TargetMarketFBS, server.URL)
	_, err := client.UpdatePrices(context.Background(), []clients.PriceRecord{
		{OfferID: "sku-1", Price: "59.90"},
	})

	var parseErr *clients.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "price", parseErr.Field)
	assert.Equal(t, "59.90", parseErr.Value)
}

func TestUpdateStocksAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"ERROR"}`, http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("token", "101", "7001", models.TargetMarketFBS, server.URL)
	batches, err := client.UpdateStocks(context.Background(), []clients.StockRecord{{OfferID: "x"}})
	require.Error(t, err)
	assert.Equal(t, 0, batches)

	var statusErr *clients.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
}
