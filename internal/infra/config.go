package infra

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting. Values are loaded from a yaml file
// and validated; a missing file yields the defaults.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Market struct {
		// BasePrices maps ware → decimal price string ("8", "20.5").
		// Strings, not floats: prices are parsed into micros without a
		// float64 round-trip.
		BasePrices map[string]string `yaml:"base_prices"`
		// DefaultBasePrice is the reference price for wares with no entry.
		DefaultBasePrice string `yaml:"default_base_price"`
		// SweepIntervalMS is the minimum gap between expiry sweeps.
		SweepIntervalMS int `yaml:"sweep_interval_ms"`
		// OrderLifetimeMS is the default resting lifetime for orders
		// submitted without an explicit expiry.
		OrderLifetimeMS int `yaml:"order_lifetime_ms"`
		// RetainInnocent keeps the counterparty order resting when a
		// settlement check fails. Off by default: the historical policy
		// discards both sides of a failed match.
		RetainInnocent bool `yaml:"retain_innocent"`
	} `yaml:"market"`

	Sim struct {
		StepMS    int     `yaml:"step_ms"`
		TimeScale float64 `yaml:"time_scale"`
	} `yaml:"sim"`

	Journal struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"journal"`

	Telemetry struct {
		Enabled    bool   `yaml:"enabled"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"telemetry"`

	Logging struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // text, json
	} `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file is present.
// Base prices and cadences match the original balance numbers.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "Econ Go"
	cfg.App.Version = "0.1.0"
	cfg.Market.BasePrices = map[string]string{
		"iron":  "8",
		"steel": "20",
		"ships": "120",
	}
	cfg.Market.DefaultBasePrice = "40"
	cfg.Market.SweepIntervalMS = 5000
	cfg.Market.OrderLifetimeMS = 30000
	cfg.Sim.StepMS = 100
	cfg.Sim.TimeScale = 1.0
	cfg.Journal.Enabled = true
	cfg.Journal.Path = "econ_trades.db"
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.ListenAddr = "localhost:8710"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}

// LoadConfig reads and validates a config file. A missing file is not an
// error: the defaults apply.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Market.SweepIntervalMS <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}
	if c.Market.OrderLifetimeMS <= 0 {
		return fmt.Errorf("order lifetime must be positive")
	}
	if c.Market.DefaultBasePrice == "" {
		return fmt.Errorf("default base price is required")
	}
	if c.Sim.StepMS <= 0 {
		return fmt.Errorf("sim step must be positive")
	}
	if c.Sim.TimeScale <= 0 {
		return fmt.Errorf("time scale must be positive")
	}
	if c.Telemetry.Enabled && c.Telemetry.ListenAddr == "" {
		return fmt.Errorf("telemetry listen address is required when enabled")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// SweepInterval returns the sweep cadence as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Market.SweepIntervalMS) * time.Millisecond
}

// OrderLifetime returns the default order lifetime as a duration.
func (c *Config) OrderLifetime() time.Duration {
	return time.Duration(c.Market.OrderLifetimeMS) * time.Millisecond
}

// SimStep returns the fixed simulation step as a duration.
func (c *Config) SimStep() time.Duration {
	return time.Duration(c.Sim.StepMS) * time.Millisecond
}

// overrideWithEnv applies environment overrides where present.
// Environment takes precedence over the file.
func overrideWithEnv(cfg *Config) {
	if path := os.Getenv("ECON_JOURNAL_PATH"); path != "" {
		cfg.Journal.Path = path
	}
	if addr := os.Getenv("ECON_TELEMETRY_ADDR"); addr != "" {
		cfg.Telemetry.ListenAddr = addr
	}
	if level := os.Getenv("ECON_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
