package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTestClient(serverURL string) *CoinrankingClient {
	return NewCoinrankingClient(Config{
		CoinrankingBaseURL: serverURL,
		CoinrankingAPIKey:  "test-key",
		CoinrankingAPIHost: "test-host",
		RequestTimeout:     2 * time.Second,
	})
}

func TestGetCoin_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coin/Qwsogvtv82FCd", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "test-host", r.Header.Get("X-RapidAPI-Host"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"data": {
				"coin": {
					"uuid": "Qwsogvtv82FCd",
					"name": "Bitcoin",
					"symbol": "BTC",
					"price": "50123.456789"
				}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	coin, err := client.GetCoin(context.Background(), "Qwsogvtv82FCd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, "Bitcoin", coin.Name)
	assert.Equal(t, "BTC", coin.Symbol)

	price, err := coin.PriceValue()
	if err != nil {
		t.Fatalf("price should parse: %v", err)
	}
	assert.True(t, price.Equal(decimal.RequireFromString("50123.456789")))
}

func TestGetCoin_EmptyCoin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "success", "data": {"coin": {}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	coin, err := client.GetCoin(context.Background(), "unknown-uuid")
	assert.Nil(t, coin)
	assert.Error(t, err)
}

func TestGetCoin_NotFoundIsNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetCoin(context.Background(), "ghost")
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestListCoins_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"data": {
				"coins": [
					{"uuid": "Qwsogvtv82FCd", "name": "Bitcoin", "symbol": "BTC", "price": "50000"},
					{"uuid": "razxDUgYGNAdQ", "name": "Ethereum", "symbol": "ETH", "price": "3000"},
					{"uuid": "HIVsRcGKkPFtW", "name": "Tether", "symbol": "USDT", "price": "not-a-number"}
				]
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	coins, err := client.ListCoins(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(coins) != 3 {
		t.Fatalf("expected 3 coins, got %d", len(coins))
	}

	_, err = coins[2].PriceValue()
	assert.Error(t, err)
}

func TestCoinPriceValue_Invalid(t *testing.T) {
	_, err := Coin{Price: ""}.PriceValue()
	assert.Error(t, err)
}
