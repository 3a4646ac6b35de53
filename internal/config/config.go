// Package config provides configuration management for sqliteorm.
//
// Config file locations (priority order):
//  1. $SQLITEORM_CONFIG
//  2. ./sqliteorm.yaml
//  3. $XDG_CONFIG_HOME/sqliteorm/config.yaml
//  4. ~/.config/sqliteorm/config.yaml
//  5. /etc/sqliteorm/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDatabasePath is used when no path is configured
	DefaultDatabasePath = "db.sqlite"
	// DefaultLimit bounds deletes that do not name a limit
	DefaultLimit = 100
	// DefaultUpdateLimit bounds updates that do not name a limit
	DefaultUpdateLimit = 1
	// DefaultTablePrefix and DefaultTableSuffix wrap generated table names
	DefaultTablePrefix = "DATA_"
	DefaultTableSuffix = "_TABLE"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Database.JournalMode == "" {
		c.Database.JournalMode = JournalWAL
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = Duration(5 * time.Second)
	}
	if c.Storage.DefaultLimit <= 0 {
		c.Storage.DefaultLimit = DefaultLimit
	}
	if c.Storage.UpdateLimit <= 0 {
		c.Storage.UpdateLimit = DefaultUpdateLimit
	}
	if c.Storage.TablePrefix == "" && c.Storage.TableSuffix == "" {
		c.Storage.TablePrefix = DefaultTablePrefix
		c.Storage.TableSuffix = DefaultTableSuffix
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate rejects settings the database would refuse at open time
func (c *Config) Validate() error {
	if !c.Database.JournalMode.Valid() {
		return fmt.Errorf("invalid journal_mode: %s", c.Database.JournalMode)
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("invalid busy_timeout: %s", c.Database.BusyTimeout.Duration())
	}
	return nil
}

// TableName wraps a type name with the configured prefix and suffix
func (s StorageConfig) TableName(typeName string) string {
	return s.TablePrefix + typeName + s.TableSuffix
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Database: %s (journal %s, busy timeout %s)\n",
		c.Database.Path, c.Database.JournalMode, c.Database.BusyTimeout.Duration())
	summary += fmt.Sprintf("Limits: delete %d, update %d\n", c.Storage.DefaultLimit, c.Storage.UpdateLimit)
	summary += fmt.Sprintf("Tables: %s\n", c.Storage.TableName("<Type>"))
	summary += fmt.Sprintf("Logging: %s (%s)", c.Logging.Level, c.Logging.Format)

	return summary
}
