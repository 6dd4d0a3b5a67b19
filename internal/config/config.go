// Package config содержит логику чтения конфигурации сервиса корзины.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса корзины.
type Config struct {
	RunAddress           string  `env:"RUN_ADDRESS"`
	DatabaseURI          string  `env:"DATABASE_URI"`
	AuthSecret           string  `env:"AUTH_SECRET"`
	DefaultWalletCredit  float64 `env:"DEFAULT_WALLET_CREDIT"`
	DefaultPaymentOption string  `env:"DEFAULT_PAYMENT_OPTION"`
	EnableMetrics        bool    `env:"ENABLE_METRICS"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envAuthSecret := cfg.AuthSecret
	envWalletCredit := cfg.DefaultWalletCredit
	envPaymentOption := cfg.DefaultPaymentOption
	envMetrics := cfg.EnableMetrics
	_, envMetricsSet := os.LookupEnv("ENABLE_METRICS")

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret key for auth tokens")
	flag.Float64Var(&cfg.DefaultWalletCredit, "w", 500, "wallet credit granted to a new user")
	flag.StringVar(&cfg.DefaultPaymentOption, "p", "card", "payment option assigned to a new cart")
	flag.BoolVar(&cfg.EnableMetrics, "m", true, "expose prometheus metrics endpoint")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envAuthSecret != "" {
		cfg.AuthSecret = envAuthSecret
	}
	if envWalletCredit != 0 {
		cfg.DefaultWalletCredit = envWalletCredit
	}
	if envPaymentOption != "" {
		cfg.DefaultPaymentOption = envPaymentOption
	}
	if envMetricsSet {
		cfg.EnableMetrics = envMetrics
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.DefaultWalletCredit < 0 {
		return nil, fmt.Errorf("default wallet credit must not be negative, got %v", cfg.DefaultWalletCredit)
	}

	return cfg, nil
}

// DefaultWalletCreditCents возвращает стартовый кредит кошелька в копейках.
func (c *Config) DefaultWalletCreditCents() int64 {
	return int64(c.DefaultWalletCredit * 100)
}
