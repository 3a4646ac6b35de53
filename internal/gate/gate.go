// Package gate serializes every statement against one SQLite database
// behind a single lock and a single connection.
package gate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/amir734jj/Sqlite-ORM/internal/config"
	"github.com/amir734jj/Sqlite-ORM/internal/errs"
	"github.com/amir734jj/Sqlite-ORM/internal/logger"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Execer runs statements inside a unit of work. *sql.Tx implements it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the statement logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.log = l
		}
	}
}

// WithDatabaseConfig sets the connection pragmas.
func WithDatabaseConfig(c config.DatabaseConfig) Option {
	return func(g *Gate) { g.cfg = c }
}

// Gate owns the connection to one database file.
type Gate struct {
	path string
	cfg  config.DatabaseConfig
	log  logger.Logger

	mu sync.Mutex // held for every statement
	db *sql.DB

	txMu sync.Mutex // guards last only
	last *sql.Tx
}

// New returns a gate for path. The database is opened on first use.
func New(path string, opts ...Option) *Gate {
	g := &Gate{
		path: path,
		cfg:  config.DefaultConfig().Database,
		log:  logger.Noop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Gate{}
)

// Shared returns the process-wide gate for path, creating it with opts on
// first use. Later calls ignore opts.
func Shared(path string, opts ...Option) (*Gate, error) {
	key := path
	if path != MemoryPath {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		key = abs
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if g, ok := registry[key]; ok {
		return g, nil
	}
	g := New(key, opts...)
	registry[key] = g
	return g, nil
}

// Path returns the database location.
func (g *Gate) Path() string { return g.path }

// dsn builds the modernc.org/sqlite data source name with pragmas.
func (g *Gate) dsn() string {
	params := make([]string, 0, 3)
	for _, p := range g.cfg.Pragmas() {
		params = append(params, "_pragma="+p)
	}
	return "file:" + g.path + "?" + strings.Join(params, "&")
}

// open must be called with mu held.
func (g *Gate) open(ctx context.Context) (*sql.DB, error) {
	if g.db != nil {
		return g.db, nil
	}

	db, err := sql.Open("sqlite", g.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", g.path, err)
	}

	if !g.cfg.JournalMode.Rollback() {
		g.log.Warn("journal disabled, rollback is unavailable", "path", g.path)
	}
	g.log.Debug("database opened", "path", g.path)
	g.db = db
	return db, nil
}

func (g *Gate) begin(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	g.txMu.Lock()
	g.last = tx
	g.txMu.Unlock()
	return tx, nil
}

// Execute runs one statement in its own transaction.
func (g *Gate) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := g.Transact(ctx, func(tx Execer) error {
		var err error
		res, err = tx.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// Transact runs fn as one unit of work: one lock, one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (g *Gate) Transact(ctx context.Context, fn func(tx Execer) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	db, err := g.open(ctx)
	if err != nil {
		return err
	}
	tx, err := g.begin(ctx, db)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&loggingTx{tx: tx, log: g.log}); err != nil {
		g.log.Error("unit of work failed", "path", g.path, "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return fmt.Errorf("unit of work aborted: %w", errs.ErrNoActiveTransaction)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Query runs a read without a transaction and hands the cursor to fn. The
// cursor is closed before the lock is released.
func (g *Gate) Query(ctx context.Context, query string, fn func(*sql.Rows) error, args ...any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	db, err := g.open(ctx)
	if err != nil {
		return err
	}

	g.log.Debug("query", "sql", query, "args", len(args))
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		g.log.Error("query failed", "sql", query, "error", err)
		return &errs.ExecutionError{Statement: query, Err: err}
	}
	defer rows.Close()

	if err := fn(rows); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return &errs.ExecutionError{Statement: query, Err: err}
	}
	return nil
}

// RollbackLastOperation rolls back the most recently begun transaction. It
// does not wait for the statement lock, so it can abort a unit of work in
// progress on another goroutine. ErrNoActiveTransaction is returned when
// that transaction already finished.
func (g *Gate) RollbackLastOperation() error {
	g.txMu.Lock()
	tx := g.last
	g.txMu.Unlock()

	if tx == nil {
		return errs.ErrNoActiveTransaction
	}
	if err := tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return errs.ErrNoActiveTransaction
		}
		return fmt.Errorf("failed to roll back: %w", err)
	}
	g.log.Info("rolled back last operation", "path", g.path)
	return nil
}

// Close closes the connection. The next statement reopens it.
func (g *Gate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	g.log.Debug("database closed", "path", g.path)
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Tables lists the user tables in name order.
func (g *Gate) Tables(ctx context.Context) ([]string, error) {
	var names []string
	err := g.Query(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
		func(rows *sql.Rows) error {
			for rows.Next() {
				var name string
				if err := rows.Scan(&name); err != nil {
					return fmt.Errorf("failed to scan table name: %w", err)
				}
				names = append(names, name)
			}
			return nil
		})
	return names, err
}

// loggingTx logs and wraps failures of statements run inside Transact.
type loggingTx struct {
	tx  *sql.Tx
	log logger.Logger
}

func (t *loggingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	t.log.Debug("exec", "sql", query, "args", len(args))
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, &errs.ExecutionError{Statement: query, Err: err}
	}
	return res, nil
}

func (t *loggingTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	t.log.Debug("query", "sql", query, "args", len(args))
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &errs.ExecutionError{Statement: query, Err: err}
	}
	return rows, nil
}
