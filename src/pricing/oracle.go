// Package pricing is the single price oracle for the ledger: every buy and
// sell path obtains its executed price here, never from its own call site.
package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/connectors"
	"cryptofolio/src/model"
)

// Quote is one price observation for an asset. Stale marks a quote served
// from the cache because the live source failed; its age is always within
// the configured staleness bound.
type Quote struct {
	TokenID     string
	TokenName   string
	TokenSymbol string
	UnitPrice   decimal.Decimal
	FetchedAt   time.Time
	Stale       bool
}

// Oracle supplies the current price for an asset identifier.
type Oracle interface {
	GetQuote(ctx context.Context, tokenID string) (*Quote, error)
}

type coinFetcher interface {
	GetCoin(ctx context.Context, tokenID string) (*connectors.Coin, error)
}

type quoteCache interface {
	UpsertQuote(ctx context.Context, quote *model.AssetPrice) error
	FindQuote(ctx context.Context, tokenID string) (*model.AssetPrice, error)
}

// CachedOracle fetches quotes live and keeps a snapshot table as a fallback.
// A cached quote is only served when the live fetch fails AND the snapshot is
// younger than MaxStaleness; the caller sees Stale=true in that case. Anything
// older surfaces as model.ErrPriceUnavailable so callers can retry instead of
// trading on a dead price.
type CachedOracle struct {
	live         coinFetcher
	cache        quoteCache
	maxStaleness time.Duration
	now          func() time.Time
}

func NewCachedOracle(live coinFetcher, cache quoteCache, cfg Config) *CachedOracle {
	return &CachedOracle{
		live:         live,
		cache:        cache,
		maxStaleness: cfg.MaxStaleness,
		now:          time.Now,
	}
}

func (o *CachedOracle) GetQuote(ctx context.Context, tokenID string) (*Quote, error) {

	coin, liveErr := o.live.GetCoin(ctx, tokenID)
	if liveErr == nil {
		price, err := coin.PriceValue()
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"component": "CachedOracle",
				"token_id":  tokenID,
				"raw_price": coin.Price,
			}).WithError(err).Error("Live quote has unparseable price")

			return nil, model.ErrPriceUnavailable
		}

		fetchedAt := o.now()

		// Best-effort cache refresh; a cache write failure must not fail
		// the quote itself.
		if err := o.cache.UpsertQuote(ctx, &model.AssetPrice{
			TokenID:     coin.UUID,
			TokenName:   coin.Name,
			TokenSymbol: coin.Symbol,
			UnitPrice:   price,
			FetchedAt:   fetchedAt,
		}); err != nil {
			logger.WithFields(map[string]interface{}{
				"component": "CachedOracle",
				"token_id":  tokenID,
			}).WithError(err).Warn("Failed to refresh price cache")
		}

		return &Quote{
			TokenID:     coin.UUID,
			TokenName:   coin.Name,
			TokenSymbol: coin.Symbol,
			UnitPrice:   price,
			FetchedAt:   fetchedAt,
		}, nil
	}

	logger.WithFields(map[string]interface{}{
		"component": "CachedOracle",
		"token_id":  tokenID,
	}).WithError(liveErr).Warn("Live price fetch failed, checking cache")

	cached, err := o.cache.FindQuote(ctx, tokenID)
	if err != nil || cached == nil {
		return nil, model.ErrPriceUnavailable
	}

	age := o.now().Sub(cached.FetchedAt)
	if age > o.maxStaleness {
		logger.WithFields(map[string]interface{}{
			"component": "CachedOracle",
			"token_id":  tokenID,
			"age":       age.String(),
		}).Warn("Cached quote exceeds staleness bound")

		return nil, model.ErrPriceUnavailable
	}

	return &Quote{
		TokenID:     cached.TokenID,
		TokenName:   cached.TokenName,
		TokenSymbol: cached.TokenSymbol,
		UnitPrice:   cached.UnitPrice,
		FetchedAt:   cached.FetchedAt,
		Stale:       true,
	}, nil
}
