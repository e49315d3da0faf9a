package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the agent configuration.
type Config struct {
	Lock     LockConfig     `toml:"lock"`
	Decision DecisionConfig `toml:"decision"`
	Paths    PathsConfig    `toml:"paths"`
	Click    ClickConfig    `toml:"click"`
	Scan     ScanConfig     `toml:"scan"`
	App      AppConfig      `toml:"app"`
}

// LockConfig toggles mutual exclusion between scan and consume cycles.
type LockConfig struct {
	Enabled bool `toml:"enabled"` // false only for single-threaded debugging
}

// DecisionConfig contains evaluator settings.
type DecisionConfig struct {
	DangerThreshold int `toml:"danger_threshold"` // Slot weight that overrides the ratio
}

// PathsConfig contains data file locations.
type PathsConfig struct {
	WeightsFile string `toml:"weights_file"` // User weights JSON
	CatalogFile string `toml:"catalog_file"` // Optional catalog override, empty = embedded
}

// ClickConfig contains click pacing settings.
type ClickConfig struct {
	Enabled     bool   `toml:"enabled"`      // Click the chosen option
	MinInterval string `toml:"min_interval"` // Minimum time between clicks (e.g., "750ms")
}

// ScanConfig contains cycle intervals.
type ScanConfig struct {
	Interval        string `toml:"interval"`         // Scan tick (e.g., "250ms")
	ConsumeInterval string `toml:"consume_interval"` // Decide tick
}

// AppConfig contains general settings.
type AppConfig struct {
	Debug bool `toml:"debug"` // Enable debug logging
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Lock: LockConfig{
			Enabled: true,
		},
		Decision: DecisionConfig{
			DangerThreshold: 90,
		},
		Paths: PathsConfig{
			WeightsFile: filepath.Join("config", "altar_weights.json"),
			CatalogFile: "",
		},
		Click: ClickConfig{
			Enabled:     true,
			MinInterval: "750ms",
		},
		Scan: ScanConfig{
			Interval:        "250ms",
			ConsumeInterval: "250ms",
		},
		App: AppConfig{
			Debug: false,
		},
	}
}

// Load loads the configuration from path. Returns default config if the file
// doesn't exist. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Decision.DangerThreshold < 1 || c.Decision.DangerThreshold > 100 {
		return fmt.Errorf("danger threshold must be within 1..100: %d", c.Decision.DangerThreshold)
	}
	if c.Paths.WeightsFile == "" {
		return errors.New("weights file path is required")
	}
	for name, value := range map[string]string{
		"click min interval":    c.Click.MinInterval,
		"scan interval":         c.Scan.Interval,
		"scan consume interval": c.Scan.ConsumeInterval,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		if d < 0 {
			return fmt.Errorf("%s cannot be negative: %s", name, value)
		}
	}
	return nil
}

// ClickInterval returns the minimum time between clicks.
func (c *Config) ClickInterval() time.Duration {
	d, _ := time.ParseDuration(c.Click.MinInterval)
	return d
}

// ScanInterval returns the scan tick.
func (c *Config) ScanInterval() time.Duration {
	d, _ := time.ParseDuration(c.Scan.Interval)
	return d
}

// ConsumeInterval returns the decide tick.
func (c *Config) ConsumeInterval() time.Duration {
	d, _ := time.ParseDuration(c.Scan.ConsumeInterval)
	return d
}
