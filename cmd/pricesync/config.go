package pricesync

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Limit int `envconfig:"PRICESYNC_LIMIT" default:"50"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
