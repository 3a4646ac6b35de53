package sqliteorm

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/amir734jj/Sqlite-ORM/internal/codec"
	"github.com/amir734jj/Sqlite-ORM/internal/config"
	"github.com/amir734jj/Sqlite-ORM/internal/errs"
	"github.com/amir734jj/Sqlite-ORM/internal/gate"
	"github.com/amir734jj/Sqlite-ORM/internal/logger"
)

// DefaultPath is the database file used when Open is given an empty path.
const DefaultPath = config.DefaultDatabasePath

// MemoryPath opens a private in-memory database.
const MemoryPath = gate.MemoryPath

type (
	// Config is the YAML configuration of a database and its storages.
	Config = config.Config
	// Logger receives structured log records.
	Logger = logger.Logger
	// StorageClass is the SQLite column type of a leaf.
	StorageClass = codec.StorageClass
)

const (
	Integer = codec.Integer
	Numeric = codec.Numeric
	Real    = codec.Real
	Text    = codec.Text
	Blob    = codec.Blob
)

// LoadConfig reads the first configuration file on the search path, or the
// defaults when there is none. The path it read from is returned.
func LoadConfig() (*Config, string, error) {
	return config.Load()
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// NewSlogLogger adapts a log/slog handler.
func NewSlogLogger(h slog.Handler) Logger {
	return logger.NewSlog(h)
}

// RegisterType makes T a leaf stored as text through encode and decode.
// Registration is process-wide and must happen before the first storage of
// a model using T is created.
func RegisterType[T any](storage StorageClass, encode func(T) (string, error), decode func(string) (T, error)) error {
	return codec.RegisterType(storage, encode, decode)
}

// Option configures Open, OpenConfig and New.
type Option func(*settings)

type settings struct {
	tableName    string
	logger       Logger
	defaultLimit int
	updateLimit  int
}

// WithTableName overrides the generated table name of a storage.
func WithTableName(name string) Option {
	return func(s *settings) { s.tableName = name }
}

// WithLogger sets the logger of a database or storage.
func WithLogger(l Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithDefaultLimit sets how many rows Delete removes when given no limit.
func WithDefaultLimit(n int) Option {
	return func(s *settings) { s.defaultLimit = n }
}

// WithUpdateLimit sets how many rows Update changes when given no limit.
func WithUpdateLimit(n int) Option {
	return func(s *settings) { s.updateLimit = n }
}

func apply(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// DB is a handle on one SQLite database. Handles opened on the same file
// share one gate, so every statement against that file is serialized.
type DB struct {
	gate   *gate.Gate
	cfg    *Config
	log    Logger
	closed atomic.Bool
}

// Open opens the database at path with the default configuration. An
// empty path uses DefaultPath.
func Open(path string, opts ...Option) (*DB, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		cfg.Database.Path = path
	}
	return OpenConfig(cfg, opts...)
}

// OpenConfig opens the database described by cfg.
func OpenConfig(cfg *Config, opts ...Option) (*DB, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := *cfg
	cfg = &c
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := apply(opts)
	log := s.logger
	if log == nil {
		log = logger.Noop()
	}
	if s.defaultLimit > 0 {
		cfg.Storage.DefaultLimit = s.defaultLimit
	}
	if s.updateLimit > 0 {
		cfg.Storage.UpdateLimit = s.updateLimit
	}

	path := cfg.Database.Path
	if path == "" {
		path = DefaultPath
	}
	gopts := []gate.Option{gate.WithLogger(log), gate.WithDatabaseConfig(cfg.Database)}

	var g *gate.Gate
	if path == MemoryPath {
		g = gate.New(path, gopts...)
	} else {
		var err error
		if g, err = gate.Shared(path, gopts...); err != nil {
			return nil, err
		}
	}
	log.Debug("database handle opened", "path", g.Path())
	return &DB{gate: g, cfg: cfg, log: log}, nil
}

// Path returns the database location.
func (db *DB) Path() string { return db.gate.Path() }

// Tables lists every table in the database, including element tables.
func (db *DB) Tables(ctx context.Context) ([]string, error) {
	if err := db.check(); err != nil {
		return nil, err
	}
	return db.gate.Tables(ctx)
}

// RollbackLastOperation rolls back the most recent unit of work if it is
// still in progress. It is never called automatically.
func (db *DB) RollbackLastOperation() error {
	if err := db.check(); err != nil {
		return err
	}
	return db.gate.RollbackLastOperation()
}

// Close releases the connection. Storages created from db fail with
// ErrClosed afterwards.
func (db *DB) Close() error {
	if db.closed.Swap(true) {
		return nil
	}
	return db.gate.Close()
}

func (db *DB) check() error {
	if db.closed.Load() {
		return errs.ErrClosed
	}
	return nil
}
