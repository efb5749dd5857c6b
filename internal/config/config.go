// Package config loads relay configuration from the environment.
package config

import (
	"fmt"
	"math"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"

	"github.com/roach88/livelink/internal/nova"
	"github.com/roach88/livelink/internal/relay"
)

// Config holds relay settings.
type Config struct {
	// Relay listener.
	Host string `env:"NOVABRIDGE_LIVELINK_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"NOVABRIDGE_LIVELINK_PORT" envDefault:"30013"`

	// PullFPS bounds how often an A-targeted pull may poll the engine.
	// Rates below 1 are clamped to 1.
	PullFPS float64 `env:"NOVABRIDGE_LIVELINK_PULL_FPS" envDefault:"8"`

	// MaxPending caps each relay queue. Zero means unbounded.
	MaxPending int `env:"NOVABRIDGE_LIVELINK_MAX_PENDING" envDefault:"4096"`

	// Engine bridge.
	EngineHost    string        `env:"NOVABRIDGE_HOST"    envDefault:"localhost"`
	EnginePort    int           `env:"NOVABRIDGE_PORT"    envDefault:"30010"`
	EngineAPIKey  string        `env:"NOVABRIDGE_API_KEY"`
	EngineTimeout time.Duration `env:"NOVABRIDGE_TIMEOUT" envDefault:"2s"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var err error
	if c.Port < 1 || c.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("NOVABRIDGE_LIVELINK_PORT must be in 1..65535, got %d", c.Port))
	}
	if c.EnginePort < 1 || c.EnginePort > 65535 {
		err = multierr.Append(err, fmt.Errorf("NOVABRIDGE_PORT must be in 1..65535, got %d", c.EnginePort))
	}
	if math.IsNaN(c.PullFPS) || math.IsInf(c.PullFPS, 0) {
		err = multierr.Append(err, fmt.Errorf("NOVABRIDGE_LIVELINK_PULL_FPS must be a finite number, got %v", c.PullFPS))
	}
	if c.MaxPending < 0 {
		err = multierr.Append(err, fmt.Errorf("NOVABRIDGE_LIVELINK_MAX_PENDING must not be negative, got %d", c.MaxPending))
	}
	if c.EngineTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("NOVABRIDGE_TIMEOUT must be positive, got %s", c.EngineTimeout))
	}
	if c.EngineHost == "" {
		err = multierr.Append(err, fmt.Errorf("NOVABRIDGE_HOST must not be empty"))
	}
	return err
}

// Addr returns the relay listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// PollInterval returns the minimum time between engine polls.
func (c Config) PollInterval() time.Duration {
	return relay.PollIntervalForFPS(c.PullFPS)
}

// EngineBaseURL returns the engine bridge base URL.
func (c Config) EngineBaseURL() string {
	return nova.BaseURL(c.EngineHost, c.EnginePort)
}
