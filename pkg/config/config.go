package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`
	GRPCPort int `env:"GRPC_PORT" envDefault:"8081"`

	CatalogURL     string        `env:"CATALOG_URL" envDefault:"https://fakestoreapi.com/products"`
	CatalogLimit   int           `env:"CATALOG_LIMIT" envDefault:"8"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`

	// StoragePath is the SQLite file holding carts. Empty keeps carts in memory.
	StoragePath    string `env:"STORAGE_PATH" envDefault:"data/storefront.db"`
	CartStorageKey string `env:"CART_STORAGE_KEY" envDefault:"carrito"`

	SessionCookie string        `env:"SESSION_COOKIE" envDefault:"storefront_session"`
	ToastDuration time.Duration `env:"TOAST_DURATION" envDefault:"2s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.HTTPPort <= 0 || cfg.GRPCPort <= 0 {
		return Config{}, fmt.Errorf("ports must be positive, got http=%d grpc=%d", cfg.HTTPPort, cfg.GRPCPort)
	}
	if cfg.CartStorageKey == "" {
		return Config{}, fmt.Errorf("CART_STORAGE_KEY must not be empty")
	}
	return cfg, nil
}
