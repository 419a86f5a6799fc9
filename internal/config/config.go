// Package config loads the coursepath YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when --config is
// not given.
const DefaultPath = ".coursepath.yaml"

// Config holds settings shared by the CLI and the MCP server. Zero values
// in a file leave the defaults in place.
type Config struct {
	DB               string  `yaml:"db" json:"db"`
	Format           string  `yaml:"format" json:"format"` // "json" | "text"
	LogLevel         string  `yaml:"log_level" json:"log_level"`
	LogMode          string  `yaml:"log_mode" json:"log_mode"` // "dev" | "prod"
	MasteryThreshold float64 `yaml:"mastery_threshold" json:"mastery_threshold"`
	Workers          int     `yaml:"workers,omitempty" json:"workers,omitempty"` // 0 = one per CPU
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Format:           "json",
		LogLevel:         "warn",
		LogMode:          "dev",
		MasteryThreshold: 0.7,
	}
}

// Load reads the YAML file at path over the defaults. A missing file is an
// error only when explicit is true; otherwise the defaults are returned.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("load config %q: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	cfg.merge(file)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) merge(o Config) {
	if o.DB != "" {
		c.DB = o.DB
	}
	if o.Format != "" {
		c.Format = strings.ToLower(o.Format)
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogMode != "" {
		c.LogMode = o.LogMode
	}
	if o.MasteryThreshold != 0 {
		c.MasteryThreshold = o.MasteryThreshold
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
}

// Validate rejects out-of-range values.
func (c Config) Validate() error {
	if c.MasteryThreshold < 0 || c.MasteryThreshold > 1 {
		return fmt.Errorf("mastery_threshold must be within [0, 1], got %g", c.MasteryThreshold)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("format must be json or text, got %q", c.Format)
	}
	switch strings.ToLower(c.LogMode) {
	case "dev", "prod", "production":
	default:
		return fmt.Errorf("log_mode must be dev or prod, got %q", c.LogMode)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}
