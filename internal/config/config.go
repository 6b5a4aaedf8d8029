// Package config loads the service configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// DataDir holds the SQLite database.
	DataDir string `yaml:"data_dir"`

	// StaticDir is served at the root path for the web frontend.
	StaticDir string `yaml:"static_dir"`

	// ReminderPollSeconds is how often the reminder scheduler sweeps for
	// due reminders.
	ReminderPollSeconds int `yaml:"reminder_poll_seconds"`

	// RetentionDays is the default completed-event retention window.
	// The settings table overrides this at runtime.
	RetentionDays int `yaml:"retention_days"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:              ":8099",
		DataDir:             "/data",
		StaticDir:           "./static",
		ReminderPollSeconds: 15,
		RetentionDays:       30,
	}
}

// Normalize fills missing or out-of-range values with defaults so partially
// filled config files still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.StaticDir == "" {
		c.StaticDir = def.StaticDir
	}
	if c.ReminderPollSeconds <= 0 {
		c.ReminderPollSeconds = def.ReminderPollSeconds
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = def.RetentionDays
	}
}

// Load reads configuration from the given YAML path. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}
