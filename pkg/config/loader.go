package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg from process environment variables using `env` struct
// tags, applying `envDefault` values for anything unset. Every service's
// Config goes through this one parsing path.
//
//	type Config struct {
//	    HTTPPort int    `env:"ORDER_HTTP_PORT" envDefault:"8081"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
