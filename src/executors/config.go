package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Enabled    bool          `envconfig:"PRICE_REFRESH_ENABLED" default:"false"`
	LoopPeriod time.Duration `envconfig:"PRICE_REFRESH_PERIOD" default:"60s"`
	Limit      int           `envconfig:"PRICE_REFRESH_LIMIT" default:"50"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
