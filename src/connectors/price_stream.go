package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// PriceUpdate is one real-time rate message from the Coinranking stream.
type PriceUpdate struct {
	CurrencyUUID string `json:"currencyUuid"`
	Price        string `json:"price"`
}

// PriceValue parses the string price into a decimal.
func (u PriceUpdate) PriceValue() (decimal.Decimal, error) {
	return decimal.NewFromString(u.Price)
}

// PriceStream maintains a websocket subscription to the Coinranking
// real-time rates feed and hands each update to a sink, typically the price
// cache upsert. It reconnects with a flat backoff until the context is done.
type PriceStream struct {
	wsURL  string
	apiKey string
	uuids  []string
	sink   func(ctx context.Context, update PriceUpdate)
}

func NewPriceStream(cfg Config, uuids []string, sink func(ctx context.Context, update PriceUpdate)) *PriceStream {
	return &PriceStream{
		wsURL:  cfg.CoinrankingWSURL,
		apiKey: cfg.CoinrankingAPIKey,
		uuids:  uuids,
		sink:   sink,
	}
}

// Run blocks until ctx is cancelled, dialing and consuming the stream.
func (s *PriceStream) Run(ctx context.Context) {
	const reconnectDelay = 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.consumeOnce(ctx); err != nil {
			logger.WithError(err).Warn("[pricestream] connection lost, reconnecting")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *PriceStream) consumeOnce(ctx context.Context) error {
	header := http.Header{}
	header.Set("x-access-token", s.apiKey)

	dialer := websocket.Dialer{
		HandshakeTimeout:  15 * time.Second,
		EnableCompression: true,
		Proxy:             http.ProxyFromEnvironment,
	}

	conn, _, err := dialer.DialContext(ctx, s.wsURL, header)
	if err != nil {
		return fmt.Errorf("ws dial failed: %w", err)
	}
	defer conn.Close()

	sub := map[string]interface{}{
		"throttle": "2s",
		"uuids":    s.uuids,
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("ws subscribe failed: %w", err)
	}

	logger.WithField("uuids", len(s.uuids)).Info("[pricestream] subscribed")

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ws read failed: %w", err)
		}

		var update PriceUpdate
		if err := json.Unmarshal(msg, &update); err != nil {
			logger.WithError(err).Debug("[pricestream] skipping malformed message")
			continue
		}

		if update.CurrencyUUID == "" || update.Price == "" {
			continue
		}

		s.sink(ctx, update)
	}
}
