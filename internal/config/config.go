package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the contentdesk service.
// Environment variables are parsed from the CONTENTDESK_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Store driver: "redisrest" (remote REST store) or "memory" (in-process)
	StoreDriver string `envconfig:"STORE_DRIVER" default:"redisrest"`

	// Remote store endpoint and bearer token (redisrest driver)
	StoreURL   string `envconfig:"STORE_URL" default:""`
	StoreToken string `envconfig:"STORE_TOKEN" default:""`

	// Per-command timeout against the remote store, seconds
	StoreTimeoutSeconds int `envconfig:"STORE_TIMEOUT_SECONDS" default:"10"`

	// Key namespace isolating test from production data; empty means none
	KeyNamespace string `envconfig:"KEY_NAMESPACE" default:""`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"15"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates the store driver and its required settings.
func (c *Config) ResolveDefaults() error {
	switch c.StoreDriver {
	case "redisrest":
		if c.StoreURL == "" {
			return fmt.Errorf("CONTENTDESK_STORE_URL is required for the redisrest driver")
		}
	case "memory":
		// Nothing to validate; data lives and dies with the process.
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: CONTENTDESK_STORE_URL, CONTENTDESK_HTTP_PORT.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CONTENTDESK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("store_driver", cfg.StoreDriver).
		Str("key_namespace", cfg.KeyNamespace).
		Int("port", cfg.HTTPPort).
		Str("store_url_present", func() string {
			if cfg.StoreURL != "" {
				return "true"
			}
			return "false"
		}()).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		StoreDriver:               "memory",
		KeyNamespace:              "test",
		StoreTimeoutSeconds:       10,
		HealthIntervalSeconds:     15,
		HealthProbeTimeoutSeconds: 2,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// StoreTimeout returns the per-command store timeout as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSeconds) * time.Second
}
