package connectors

// REST client for the Coinranking API (RapidAPI gateway).
// RESTY ONLY + INTERNAL RETRY

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

// Coin is the subset of the Coinranking coin payload the ledger cares about.
// Coinranking serializes prices as strings.
type Coin struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// PriceValue parses the string price into a decimal.
func (c Coin) PriceValue() (decimal.Decimal, error) {
	return decimal.NewFromString(c.Price)
}

type coinResponse struct {
	Status string `json:"status"`
	Data   struct {
		Coin Coin `json:"coin"`
	} `json:"data"`
}

type coinsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Coins []Coin `json:"coins"`
	} `json:"data"`
}

// -----------------------------
// CLIENT
// -----------------------------

type CoinrankingClient struct {
	apiKey  string
	apiHost string
	baseURL string
	http    *resty.Client
}

func NewCoinrankingClient(cfg Config) *CoinrankingClient {
	retryCount := defaultRetryAttempts - 1

	baseURL := strings.TrimRight(cfg.CoinrankingBaseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.RequestTimeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &CoinrankingClient{
		apiKey:  cfg.CoinrankingAPIKey,
		apiHost: cfg.CoinrankingAPIHost,
		baseURL: baseURL,
		http:    httpClient,
	}
}

// GetCoin fetches the live quote for one asset by its Coinranking uuid.
func (c *CoinrankingClient) GetCoin(ctx context.Context, tokenID string) (*Coin, error) {

	logger.WithFields(map[string]interface{}{
		"connector": "coinranking",
		"op":        "GetCoin",
		"token_id":  tokenID,
	}).Debug("Fetching live coin data")

	var out coinResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-RapidAPI-Key", c.apiKey).
		SetHeader("X-RapidAPI-Host", c.apiHost).
		SetResult(&out).
		Get("/coin/" + tokenID)

	if err != nil {
		return nil, fmt.Errorf("coinranking GetCoin request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("coinranking GetCoin returned status %d", resp.StatusCode())
	}

	if out.Data.Coin.UUID == "" {
		return nil, fmt.Errorf("coinranking GetCoin returned empty coin for %s", tokenID)
	}

	return &out.Data.Coin, nil
}

// ListCoins fetches the top coins, used to warm the price cache.
func (c *CoinrankingClient) ListCoins(ctx context.Context, limit int) ([]Coin, error) {

	if limit <= 0 {
		limit = 50
	}

	logger.WithFields(map[string]interface{}{
		"connector": "coinranking",
		"op":        "ListCoins",
		"limit":     limit,
	}).Debug("Fetching coin list")

	var out coinsResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-RapidAPI-Key", c.apiKey).
		SetHeader("X-RapidAPI-Host", c.apiHost).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&out).
		Get("/coins")

	if err != nil {
		return nil, fmt.Errorf("coinranking ListCoins request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("coinranking ListCoins returned status %d", resp.StatusCode())
	}

	return out.Data.Coins, nil
}

// isRetryableResp retries on transport errors, 5xx and rate limiting.
func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}

	return false
}
