// Package config loads service configuration from the environment into an
// explicit struct, so components receive credentials by injection instead of
// ambient lookups.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"hivemint/internal/ledger"
)

// Recognized environment variables.
const (
	EnvLedgerEndpoint  = "LEDGER_RPC_ENDPOINT"
	EnvOperatorID      = "LEDGER_OPERATOR_ID"
	EnvOperatorKey     = "LEDGER_OPERATOR_KEY"
	EnvPinningEndpoint = "PINNING_ENDPOINT"
	EnvPinningToken    = "PINNING_API_TOKEN"
	EnvExplorerBaseURL = "EXPLORER_BASE_URL"
	EnvAllowedOrigins  = "ALLOWED_ORIGINS"
	EnvPort            = "PORT"
	EnvEnvironment     = "ENVIRONMENT"
	EnvHiveStorePath   = "HIVE_STORE_PATH"
	EnvPostgresDSN     = "POSTGRES_DSN"
)

// Defaults.
const (
	DefaultPort          = 3001
	DefaultEnvironment   = "development"
	DefaultHiveStorePath = "data/hives.json"
	DefaultExplorerURL   = "https://explorer.testnet.hivemint.io"
)

// Config holds all service configuration.
type Config struct {
	LedgerEndpoint  string
	OperatorID      string
	OperatorKey     string
	PinningEndpoint string
	PinningToken    string
	ExplorerBaseURL string
	AllowedOrigins  []string
	Port            int
	Environment     string
	HiveStorePath   string
	PostgresDSN     string // when set, the postgres store backend is used
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		LedgerEndpoint:  os.Getenv(EnvLedgerEndpoint),
		OperatorID:      os.Getenv(EnvOperatorID),
		OperatorKey:     os.Getenv(EnvOperatorKey),
		PinningEndpoint: os.Getenv(EnvPinningEndpoint),
		PinningToken:    os.Getenv(EnvPinningToken),
		ExplorerBaseURL: envOr(EnvExplorerBaseURL, DefaultExplorerURL),
		Environment:     envOr(EnvEnvironment, DefaultEnvironment),
		HiveStorePath:   envOr(EnvHiveStorePath, DefaultHiveStorePath),
		PostgresDSN:     os.Getenv(EnvPostgresDSN),
		Port:            DefaultPort,
	}

	if raw := os.Getenv(EnvPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvPort, err)
		}
		cfg.Port = port
	}

	for _, origin := range strings.Split(os.Getenv(EnvAllowedOrigins), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg, nil
}

// Validate checks required fields and the operator key material.
func (c *Config) Validate() error {
	if c.LedgerEndpoint == "" {
		return fmt.Errorf("%s is required", EnvLedgerEndpoint)
	}
	if c.OperatorID == "" {
		return fmt.Errorf("%s is required", EnvOperatorID)
	}
	if c.OperatorKey == "" {
		return fmt.Errorf("%s is required", EnvOperatorKey)
	}
	if err := ledger.ValidateKey(c.OperatorKey); err != nil {
		return fmt.Errorf("%s: %w", EnvOperatorKey, err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
