// Package config provides configuration management for ossl.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/ossl/internal/fileutil"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version"`
	Home    string        `yaml:"home"`
	Backend BackendConfig `yaml:"backend"`
	Rand    RandConfig    `yaml:"rand"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig selects the cryptography backend.
type BackendConfig struct {
	// Variant names the simulated library to use when no native library is
	// linked. Ignored when one is.
	Variant string `yaml:"variant"`
}

// RandConfig defines defaults for the rand command.
type RandConfig struct {
	Size            int     `yaml:"size"`
	Encoding        string  `yaml:"encoding"`
	Rate            float64 `yaml:"rate"`
	Burst           int     `yaml:"burst"`
	KeepDevicesOpen bool    `yaml:"keep_devices_open"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the ossl home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetBackendVariant returns the configured backend variant.
func (c *Config) GetBackendVariant() string {
	return c.Backend.Variant
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default ossl home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ossl"
	}
	return filepath.Join(home, ".ossl")
}
