// Package config provides configuration management for the quant engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"quant-engine/internal/analysis/execution"
	"quant-engine/internal/analysis/meanreversion"
	"quant-engine/internal/analysis/momentum"
	"quant-engine/internal/analysis/risk"
	"quant-engine/internal/analysis/statarb"
	"quant-engine/internal/analysis/synthesis"
	apperrors "quant-engine/internal/errors"
	"quant-engine/internal/logging"
)

// Environment variables that override file settings.
const (
	EnvLogLevel = "QUANT_LOG_LEVEL"
	EnvDBPath   = "QUANT_DB_PATH"
	EnvWorkers  = "QUANT_WORKERS"
)

// Config holds all application configuration.
type Config struct {
	Logging       logging.LogConfig    `mapstructure:"logging" toml:"logging"`
	Store         StoreConfig          `mapstructure:"store" toml:"store"`
	Portfolio     PortfolioConfig      `mapstructure:"portfolio" toml:"portfolio"`
	MeanReversion meanreversion.Config `mapstructure:"mean_reversion" toml:"mean_reversion"`
	Momentum      momentum.Config      `mapstructure:"momentum" toml:"momentum"`
	StatArb       statarb.Config       `mapstructure:"stat_arb" toml:"stat_arb"`
	Risk          risk.Config          `mapstructure:"risk" toml:"risk"`
	Execution     execution.Config     `mapstructure:"execution" toml:"execution"`
	Synthesis     synthesis.Config     `mapstructure:"synthesis" toml:"synthesis"`
}

// StoreConfig holds price store settings.
type StoreConfig struct {
	Path string `mapstructure:"path" toml:"path"` // empty selects DefaultDBPath
}

// PortfolioConfig holds batch analysis settings.
type PortfolioConfig struct {
	Workers     int     `mapstructure:"workers" toml:"workers" default:"4" validate:"gte=1,lte=64"`
	Lookback    int     `mapstructure:"lookback" toml:"lookback" default:"252" validate:"gte=60"`
	TradeValue  float64 `mapstructure:"trade_value" toml:"trade_value" default:"100000" validate:"gt=0"`
	Benchmark   string  `mapstructure:"benchmark" toml:"benchmark" default:"SPY"`
	MetricsFile string  `mapstructure:"metrics_file" toml:"metrics_file"`
}

// DefaultConfig returns the built-in configuration. Analyzer sections share
// their defaults with each analyzer's own DefaultConfig.
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.MustSet(cfg)
	return cfg
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/quant-engine"
	}
	return filepath.Join(home, ".config", "quant-engine")
}

// DefaultConfigPath returns the default config.toml location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// DefaultDBPath returns the default SQLite database location.
func DefaultDBPath() string {
	return filepath.Join(DefaultConfigDir(), "quant.db")
}

// Load reads configuration from path, or from DefaultConfigPath when path is
// empty. A missing file is replaced by the template and the defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteTemplate(path); err != nil {
			return nil, err
		}
	} else if err := loadConfigFile(path, cfg); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultDBPath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	// Keys absent from the file keep their defaults.
	return v.Unmarshal(cfg)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.Wrapf(apperrors.ErrConfigInvalid, "%s=%q is not an integer", EnvWorkers, v)
		}
		cfg.Portfolio.Workers = workers
	}
	return nil
}

var validate = validator.New()

// Validate checks every section against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, err.Error())
	}

	w := c.Synthesis.Weights
	if sum := w.MeanReversion + w.Momentum + w.StatArb; sum <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "synthesis weights must not all be zero")
	}

	return nil
}
