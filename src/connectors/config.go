package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	CoinrankingBaseURL string `envconfig:"COINRANKING_BASE_URL" default:"https://coinranking1.p.rapidapi.com"`
	CoinrankingAPIKey  string `envconfig:"COINRANKING_API_KEY" default:""`
	CoinrankingAPIHost string `envconfig:"COINRANKING_API_HOST" default:"coinranking1.p.rapidapi.com"`

	CoinrankingWSURL string `envconfig:"COINRANKING_WS_URL" default:"wss://api.coinranking.com/v2/real-time-rates"`

	RequestTimeout time.Duration `envconfig:"COINRANKING_TIMEOUT" default:"15s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
