package config

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/caarlos0/env/v11"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreSQLite = "sqlite"
	StoreBolt   = "bbolt"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	HTTPAddr       string     `env:"HTTP_ADDR" envDefault:":8080"`
	StoreDriver    string     `env:"STORE_DRIVER" envDefault:"sqlite"`
	DBDir          string     `env:"DB_DIR" envDefault:"data"`
	RedisURL       string     `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	LogLevel       slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir         string     `env:"SPA_DIR" envDefault:"../web/dist"`
	AllowedOrigins []string   `env:"ALLOWED_ORIGINS" envSeparator:","`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if !slices.Contains([]string{StoreSQLite, StoreBolt, StoreRedis, StoreMemory}, cfg.StoreDriver) {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return &cfg, nil
}
