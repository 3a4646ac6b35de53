package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "SQLITEORM_CONFIG"
	// EnvDatabasePath overrides database.path from any config file
	EnvDatabasePath = "SQLITEORM_DB"
	// ConfigFileName is the default config file name
	ConfigFileName = "sqliteorm.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "sqliteorm"
)

// SearchPaths lists the config file candidates in priority order:
// 1. $SQLITEORM_CONFIG (explicit path)
// 2. ./sqliteorm.yaml (working directory)
// 3. $XDG_CONFIG_HOME/sqliteorm/config.yaml
// 4. ~/.config/sqliteorm/config.yaml
// 5. /etc/sqliteorm/config.yaml
func SearchPaths() []string {
	var paths []string
	if path := os.Getenv(EnvConfigPath); path != "" {
		paths = append(paths, path)
	}
	paths = append(paths, ConfigFileName)
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing entry of SearchPaths, made
// absolute, or an empty string if no config file exists
func FindConfigPath() string {
	for _, path := range SearchPaths() {
		if !fileExists(path) {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

// DefaultConfigPath returns the preferred location for a new config file
// Prefers XDG config home, falls back to working directory
func DefaultConfigPath() string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, ConfigDirName, "config.yaml")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, "config.yaml")
	}
	return ConfigFileName
}

// DatabasePath resolves the database file: $SQLITEORM_DB wins, then a
// relative database.path is taken relative to the config file that set it.
// configPath may be empty when defaults are in use.
func (c *Config) DatabasePath(configPath string) string {
	if path := os.Getenv(EnvDatabasePath); path != "" {
		return path
	}
	path := c.Database.Path
	if path == ":memory:" || filepath.IsAbs(path) || configPath == "" {
		return path
	}
	return filepath.Join(filepath.Dir(configPath), path)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	dir := filepath.Dir(configPath)
	return os.MkdirAll(dir, 0755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
