// Package config provides centralized configuration for the sticky idea
// pad. Values come from environment variables with sensible defaults; CLI
// flags control development toggles.
package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// DataDir is the directory holding the board database.
	DataDir string `env:"DATA_DIR" envDefault:"./data"`

	// StoreKey optionally encrypts the board database. 64 hex characters
	// (32 bytes); empty means unencrypted.
	StoreKey string `env:"STORE_KEY"`

	// UserID is the opaque resolved user identity. Empty means anonymous.
	UserID string `env:"USER_ID"`

	// SaveDebounce is the quiet period before pending changes are
	// persisted.
	SaveDebounce time.Duration `env:"SAVE_DEBOUNCE" envDefault:"1s"`

	// DevMode bypasses identity resolution and uses the development
	// namespace (--dev flag).
	DevMode bool `env:"-"`
}

// ParseFlags parses CLI flags. Call before Load.
func ParseFlags() (devMode bool, addr string) {
	flag.BoolVar(&devMode, "dev", false, "Use the development namespace without identity resolution")
	flag.StringVar(&addr, "addr", "", "Listen address (overrides LISTEN_ADDR env var)")
	flag.Parse()
	return devMode, addr
}

// Load reads configuration from environment variables and applies CLI
// flag values. The addr flag overrides LISTEN_ADDR when non-empty.
func Load(devMode bool, addr string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.DevMode = devMode
	if addr != "" {
		cfg.ListenAddr = addr
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var problems []string

	if c.StoreKey != "" {
		raw, err := hex.DecodeString(c.StoreKey)
		if err != nil {
			problems = append(problems, "STORE_KEY must be hex-encoded")
		} else if len(raw) != 32 {
			problems = append(problems, fmt.Sprintf("STORE_KEY must be 32 bytes (64 hex characters), got %d bytes", len(raw)))
		}
	}
	if c.SaveDebounce <= 0 {
		problems = append(problems, "SAVE_DEBOUNCE must be positive")
	}
	if c.DataDir == "" {
		problems = append(problems, "DATA_DIR must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
