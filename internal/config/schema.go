package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds connection settings
type DatabaseConfig struct {
	Path        string      `yaml:"path"`
	JournalMode JournalMode `yaml:"journal_mode"`
	BusyTimeout Duration    `yaml:"busy_timeout"`
	ForeignKeys bool        `yaml:"foreign_keys"`
}

// StorageConfig holds statement defaults and table naming
type StorageConfig struct {
	DefaultLimit int    `yaml:"default_limit"` // delete limit when none is given
	UpdateLimit  int    `yaml:"update_limit"`  // update limit when none is given
	TablePrefix  string `yaml:"table_prefix"`
	TableSuffix  string `yaml:"table_suffix"`
}

// LoggingConfig selects the logger backend
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, zerolog
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
