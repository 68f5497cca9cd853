// Package executors runs the in-process background loops. The only loop so
// far is the price cache refresher, which keeps the oracle's bounded-staleness
// fallback warm for the top assets without waiting for live fetch traffic.
package executors

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/connectors"
	"cryptofolio/src/model"
	"cryptofolio/src/repository"
)

type coinLister interface {
	ListCoins(ctx context.Context, limit int) ([]connectors.Coin, error)
}

type quoteWriter interface {
	UpsertQuote(ctx context.Context, quote *model.AssetPrice) error
}

// StartLoop refreshes the cached quote table every LoopPeriod until the
// context is cancelled. Intended to be run as a goroutine from main.
func StartLoop(ctx context.Context) error {
	config := GetConfig()

	client := connectors.NewCoinrankingClient(connectors.GetConfig())
	priceRepo := repository.NewPriceRepository()

	ticker := time.NewTicker(config.LoopPeriod)
	defer ticker.Stop()

	logger.WithFields(map[string]interface{}{
		"period": config.LoopPeriod,
		"limit":  config.Limit,
	}).Info("Price refresh loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Price refresh loop stopped")
			return nil

		case <-ticker.C:
			if err := refreshOnce(ctx, client, priceRepo, config.Limit); err != nil {
				// Transient upstream failures must not kill the loop; the
				// oracle still has live fetches and the stale cache.
				logger.WithError(err).Warn("Price refresh tick failed")
			}
		}
	}
}

// refreshOnce pulls the top coins and upserts every parseable quote.
func refreshOnce(ctx context.Context, client coinLister, store quoteWriter, limit int) error {
	coins, err := client.ListCoins(ctx, limit)
	if err != nil {
		return err
	}

	fetchedAt := time.Now()
	stored := 0

	for _, coin := range coins {
		price, err := coin.PriceValue()
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"token_id":  coin.UUID,
				"raw_price": coin.Price,
			}).WithError(err).Warn("Skipping coin with unparseable price")
			continue
		}

		if err := store.UpsertQuote(ctx, &model.AssetPrice{
			TokenID:     coin.UUID,
			TokenName:   coin.Name,
			TokenSymbol: coin.Symbol,
			UnitPrice:   price,
			FetchedAt:   fetchedAt,
		}); err != nil {
			return err
		}
		stored++
	}

	logger.WithFields(map[string]interface{}{
		"fetched": len(coins),
		"stored":  stored,
	}).Debug("Price cache refreshed")

	return nil
}
