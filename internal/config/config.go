package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/account-history/internal/common"
	"github.com/Veraticus/account-history/internal/ledger"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	History  HistoryConfig  `mapstructure:"history"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig locates the run archive.
type DatabaseConfig struct {
	Path      string `mapstructure:"path"`
	BatchSize int    `mapstructure:"batch_size"`
}

// HistoryConfig tunes classification.
type HistoryConfig struct {
	AgingDays int `mapstructure:"aging_days"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("database.batch_size", 500)
	v.SetDefault("history.aging_days", ledger.DefaultAgingDays)
}

// Load reads the configuration from v, applying defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	if c.History.AgingDays <= 0 {
		return fmt.Errorf("%w: history.aging_days must be positive, got %d", common.ErrInvalidConfig, c.History.AgingDays)
	}
	if c.Database.BatchSize <= 0 {
		return fmt.Errorf("%w: database.batch_size must be positive, got %d", common.ErrInvalidConfig, c.Database.BatchSize)
	}
	return nil
}

// LedgerOptions translates the history settings into ledger options.
func (c *Config) LedgerOptions() []ledger.Option {
	return []ledger.Option{ledger.WithAgingDays(c.History.AgingDays)}
}
