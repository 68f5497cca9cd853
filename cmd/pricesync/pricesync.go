// Package pricesync refreshes the cached quote table from the Coinranking
// coin listing, so the price oracle has a bounded-staleness fallback before
// the first live fetch of each asset.
package pricesync

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/connectors"
	"cryptofolio/src/model"
	"cryptofolio/src/repository"
)

type PriceSync struct {
	Log    *logger.Entry
	Config *Config
}

func (p *PriceSync) Start() error {
	p.Config = GetConfig()
	if p.Log == nil {
		p.Log = logger.NewEntry(logger.StandardLogger())
	}

	client := connectors.NewCoinrankingClient(connectors.GetConfig())
	priceRepo := repository.NewPriceRepository()

	ctx := context.Background()

	coins, err := client.ListCoins(ctx, p.Config.Limit)
	if err != nil {
		p.Log.WithError(err).Error("Failed to list coins")
		return err
	}

	fetchedAt := time.Now()
	stored := 0

	for _, coin := range coins {
		price, err := coin.PriceValue()
		if err != nil {
			p.Log.WithFields(map[string]interface{}{
				"token_id":  coin.UUID,
				"raw_price": coin.Price,
			}).WithError(err).Warn("Skipping coin with unparseable price")
			continue
		}

		if err := priceRepo.UpsertQuote(ctx, &model.AssetPrice{
			TokenID:     coin.UUID,
			TokenName:   coin.Name,
			TokenSymbol: coin.Symbol,
			UnitPrice:   price,
			FetchedAt:   fetchedAt,
		}); err != nil {
			p.Log.WithField("token_id", coin.UUID).
				WithError(err).Error("Failed to store quote")
			return err
		}
		stored++
	}

	p.Log.WithFields(map[string]interface{}{
		"fetched": len(coins),
		"stored":  stored,
	}).Info("Price cache refreshed")

	return nil
}
