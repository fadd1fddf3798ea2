// Package config loads and validates the server configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EnvDatabasePath overrides Database.Path when set.
const EnvDatabasePath = "COLLECTIONS_DB"

// Config represents the server configuration.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Log       LogConfig       `toml:"log"`
	Optimizer OptimizerConfig `toml:"optimizer"`
}

// DatabaseConfig contains storage settings.
type DatabaseConfig struct {
	Path string `toml:"path"` // SQLite database file
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn or error
}

// OptimizerConfig contains search limits and valuation settings.
type OptimizerConfig struct {
	SubsetCap        int `toml:"subset_cap"`         // Max enumerated subsets once capped
	SubsetCapTrigger int `toml:"subset_cap_trigger"` // Candidate count that turns the cap on
	CacheSize        int `toml:"cache_size"`         // Cached player snapshots
	SaleDiscountPct  int `toml:"sale_discount_pct"`  // Sale discount when no sale prices are stored
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "collections.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Optimizer: OptimizerConfig{
			SubsetCap:        1000,
			SubsetCapTrigger: 8,
			CacheSize:        16,
			SaleDiscountPct:  50,
		},
	}
}

// Load reads the configuration at path on top of the defaults. A missing
// file yields the defaults. The database path environment override is
// applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults only.
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if db := os.Getenv(EnvDatabasePath); db != "" {
		cfg.Database.Path = db
	}

	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path cannot be empty")
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	if c.Optimizer.SubsetCap <= 0 {
		return fmt.Errorf("subset cap must be positive: %d", c.Optimizer.SubsetCap)
	}
	if c.Optimizer.SubsetCapTrigger <= 0 {
		return fmt.Errorf("subset cap trigger must be positive: %d", c.Optimizer.SubsetCapTrigger)
	}
	if c.Optimizer.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive: %d", c.Optimizer.CacheSize)
	}
	if c.Optimizer.SaleDiscountPct < 0 || c.Optimizer.SaleDiscountPct > 100 {
		return fmt.Errorf("sale discount must be between 0 and 100: %d", c.Optimizer.SaleDiscountPct)
	}

	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}
