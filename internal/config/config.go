package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/delayrun/internal/logger"
	"github.com/loykin/delayrun/internal/observer"
	"github.com/loykin/delayrun/internal/strategy"
)

// RunConfig selects the default strategy variant and the unit raw weights
// are interpreted in (CLI args, HTTP payloads).
type RunConfig struct {
	Strategy string `mapstructure:"strategy"`
	Unit     string `mapstructure:"unit"`
	MaxRuns  int    `mapstructure:"max_runs"`
}

// HistoryConfig points the engine at an external audit sink.
type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// ServerConfig controls the embeddable HTTP API.
type ServerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Listen   string `mapstructure:"listen"`
	BasePath string `mapstructure:"base_path"`
}

// Config is the top-level TOML structure.
type Config struct {
	Run     RunConfig          `mapstructure:"run"`
	Log     observer.LogConfig `mapstructure:"log"`
	Logger  logger.Config      `mapstructure:"logger"`
	History HistoryConfig      `mapstructure:"history"`
	Metrics MetricsConfig      `mapstructure:"metrics"`
	Server  ServerConfig       `mapstructure:"server"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Run:     RunConfig{Strategy: strategy.Delayed, Unit: "ms", MaxRuns: 0},
		Log:     observer.LogConfig{Enabled: true, Prefix: "", ShowTimestamps: false},
		Logger:  logger.Config{Level: "info", Color: true},
		Metrics: MetricsConfig{Listen: ":9090"},
		Server:  ServerConfig{Listen: ":8080", BasePath: "/api"},
	}
}

// Load reads a TOML config file and validates it. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field invariants.
func (c *Config) Validate() error {
	if _, err := strategy.New(c.Run.Strategy); err != nil {
		return fmt.Errorf("run.strategy: %w", err)
	}
	if _, err := c.WeightUnit(); err != nil {
		return err
	}
	if c.Run.MaxRuns < 0 {
		return fmt.Errorf("run.max_runs must be >= 0, got %d", c.Run.MaxRuns)
	}
	return nil
}

// WeightUnit resolves run.unit into a duration multiplier.
func (c *Config) WeightUnit() (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(c.Run.Unit)) {
	case "", "ms", "millisecond", "milliseconds":
		return time.Millisecond, nil
	case "s", "second", "seconds":
		return time.Second, nil
	case "us", "microsecond", "microseconds":
		return time.Microsecond, nil
	case "ns", "nanosecond", "nanoseconds":
		return time.Nanosecond, nil
	default:
		return 0, fmt.Errorf("run.unit: unsupported unit %q (ms, s, us, ns)", c.Run.Unit)
	}
}
