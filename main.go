package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/connectors"
	"cryptofolio/src/database"
	"cryptofolio/src/executors"
	"cryptofolio/src/ledger"
	"cryptofolio/src/pricing"
	"cryptofolio/src/repository"
	"cryptofolio/src/server"
)

var (
	APP_NAME = os.Getenv("APP_NAME")

	// STREAM_TOKEN_IDS is a comma separated list of Coinranking uuids the
	// realtime feed keeps warm in the price cache. Empty disables the feed.
	STREAM_TOKEN_IDS = os.Getenv("STREAM_TOKEN_IDS")
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	ledgerRepo := repository.NewLedgerRepository()
	priceRepo := repository.NewPriceRepository()

	connectorCfg := connectors.GetConfig()
	client := connectors.NewCoinrankingClient(connectorCfg)
	oracle := pricing.NewCachedOracle(client, priceRepo, pricing.GetConfig())

	engine := ledger.NewEngine(ledgerRepo, oracle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if STREAM_TOKEN_IDS != "" {
		uuids := strings.Split(STREAM_TOKEN_IDS, ",")
		stream := connectors.NewPriceStream(connectorCfg, uuids, streamSink(priceRepo))
		go stream.Run(ctx)
	}

	if executors.GetConfig().Enabled {
		go func() {
			if err := executors.StartLoop(ctx); err != nil {
				logger.WithError(err).Error("Price refresh loop exited")
			}
		}()
	}

	server.StartServer(server.GetConfig().Port, engine)
}

// streamSink folds realtime rate updates into the cached quote table.
// Name/symbol metadata is only known from REST fetches, so an update for a
// token never seen by the cache is skipped.
func streamSink(priceRepo *repository.PriceRepository) func(ctx context.Context, update connectors.PriceUpdate) {
	return func(ctx context.Context, update connectors.PriceUpdate) {
		cached, err := priceRepo.FindQuote(ctx, update.CurrencyUUID)
		if err != nil || cached == nil {
			return
		}

		price, err := update.PriceValue()
		if err != nil {
			logger.WithError(err).Debug("skipping unparseable stream price")
			return
		}

		cached.UnitPrice = price
		cached.FetchedAt = time.Now()
		if err := priceRepo.UpsertQuote(ctx, cached); err != nil {
			logger.WithError(err).Warn("failed to refresh cache from stream")
		}
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
