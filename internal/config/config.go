// Package config loads daemon configuration from ~/.reflex/config.yaml,
// falling back to programmatic defaults when the file is absent.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the analytics daemon.
type Config struct {
	Daemon  DaemonConfig  `yaml:"daemon"`
	Storage StorageConfig `yaml:"storage"`
}

// DaemonConfig holds daemon server settings.
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "json" for the file store or "sqlite".
	Backend string `yaml:"backend"`

	// Path overrides the default data location: a directory for the
	// json backend, a database file for sqlite.
	Path string `yaml:"path,omitempty"`
}

// ReflexDir returns the path to ~/.reflex
func ReflexDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".reflex"), nil
}

// EnsureReflexDir creates ~/.reflex and its subdirectories if they
// don't exist.
func EnsureReflexDir() (string, error) {
	dir, err := ReflexDir()
	if err != nil {
		return "", err
	}

	subdirs := []string{
		"",
		"logs",
		"data",
	}

	for _, subdir := range subdirs {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// Default returns sensible defaults for local mode.
func Default() *Config {
	return &Config{
		Daemon: DaemonConfig{
			Port:     7421,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Storage: StorageConfig{
			Backend: "json",
		},
	}
}

// Load loads configuration from ~/.reflex/config.yaml.
func Load() (*Config, error) {
	dir, err := ReflexDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(dir, "config.yaml"))
}

// LoadFrom loads configuration from an explicit path. A missing file
// yields the defaults; a file that exists only overrides the fields it
// sets.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to ~/.reflex/config.yaml.
func Save(cfg *Config) error {
	dir, err := EnsureReflexDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DataPath resolves where the configured backend keeps its data.
func (c *Config) DataPath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ReflexDir()
	if err != nil {
		return "", err
	}
	if c.Storage.Backend == "sqlite" {
		return filepath.Join(dir, "data", "reflex.db"), nil
	}
	return filepath.Join(dir, "data"), nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Daemon.Port < 1 || c.Daemon.Port > 65535 {
		return fmt.Errorf("invalid daemon port %d", c.Daemon.Port)
	}
	return nil
}
