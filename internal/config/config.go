// Package config resolves process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvEnvironment     = "CONCENTRA_ENV"
	EnvListenAddr      = "CONCENTRA_LISTEN_ADDR"
	EnvDatasetURL      = "CONCENTRA_DATASET_URL"
	EnvSimulationURL   = "CONCENTRA_SIMULATION_URL"
	EnvDatasetCacheTTL = "CONCENTRA_DATASET_CACHE_TTL"
	EnvSessionStore    = "CONCENTRA_SESSION_STORE"
	EnvAPIKey          = "CONCENTRA_SIMULATION_API_KEY"
)

// Defaults.
const (
	DefaultEnvironment     = "production"
	DefaultListenAddr      = ":8080"
	DefaultDatasetCacheTTL = 5 * time.Minute
)

// Config is the resolved process configuration.
type Config struct {
	Environment     string
	ListenAddr      string
	DatasetURL      string
	SimulationURL   string
	DatasetCacheTTL time.Duration
	SessionStore    string
	APIKey          string
}

// Load resolves configuration from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Environment:     getenv(EnvEnvironment, DefaultEnvironment),
		ListenAddr:      getenv(EnvListenAddr, DefaultListenAddr),
		DatasetURL:      getenv(EnvDatasetURL, ""),
		SimulationURL:   getenv(EnvSimulationURL, ""),
		DatasetCacheTTL: DefaultDatasetCacheTTL,
		SessionStore:    getenv(EnvSessionStore, ""),
		APIKey:          getenv(EnvAPIKey, ""),
	}
	if raw := getenv(EnvDatasetCacheTTL, ""); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvDatasetCacheTTL, err)
		}
		if ttl < 0 {
			return Config{}, fmt.Errorf("%s must not be negative", EnvDatasetCacheTTL)
		}
		cfg.DatasetCacheTTL = ttl
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the required fields.
func (c Config) Validate() error {
	switch c.Environment {
	case "production", "development":
	default:
		return fmt.Errorf("%s must be production or development, got %q", EnvEnvironment, c.Environment)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("%s must not be empty", EnvListenAddr)
	}
	if c.DatasetURL == "" {
		return fmt.Errorf("%s is required", EnvDatasetURL)
	}
	if c.SimulationURL == "" {
		return fmt.Errorf("%s is required", EnvSimulationURL)
	}
	return nil
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
