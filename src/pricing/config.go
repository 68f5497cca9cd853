package pricing

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// MaxStaleness bounds how old a cached quote may be when the live
	// price source fails. Beyond this the oracle reports unavailability
	// instead of serving a stale price.
	MaxStaleness time.Duration `envconfig:"PRICE_MAX_STALENESS" default:"5m"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
