// Package config loads runtime settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by every command. Flags override these.
type Config struct {
	// DB is the path of the SQLite world file.
	DB string `env:"DIMSUM_DB" envDefault:"world.sqlite3"`

	// Workers is the number of parallel decoders used by load.
	Workers int `env:"DIMSUM_WORKERS" envDefault:"4"`

	// FailFast aborts a load at the first entity that fails to decode.
	FailFast bool `env:"DIMSUM_FAIL_FAST" envDefault:"false"`

	// CacheSize bounds the number of decoded entities kept by the resolver.
	CacheSize int `env:"DIMSUM_CACHE_SIZE" envDefault:"1024"`
}

// Load reads Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("DIMSUM_WORKERS must be at least 1, got %d", cfg.Workers)
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
