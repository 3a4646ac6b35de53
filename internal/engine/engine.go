// Package engine stores flattened models in SQLite tables and rebuilds them
// on read. Collection fields live in element tables owned by nested engines.
package engine

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/amir734jj/Sqlite-ORM/internal/config"
	"github.com/amir734jj/Sqlite-ORM/internal/errs"
	"github.com/amir734jj/Sqlite-ORM/internal/gate"
	"github.com/amir734jj/Sqlite-ORM/internal/logger"
	"github.com/amir734jj/Sqlite-ORM/internal/pathengine"
	"github.com/amir734jj/Sqlite-ORM/internal/schema"
)

// State is the lifecycle of an Engine.
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

// String returns a human-readable representation of the State.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures an Engine.
type Options struct {
	// TableName overrides the generated root table name.
	TableName string
	Storage   config.StorageConfig
	Logger    logger.Logger
}

// Engine maps one model type onto one table plus an element table per
// collection field.
type Engine struct {
	typ  reflect.Type
	base string // name stem shared with element tables and link columns
	gate *gate.Gate
	opts Options
	log  logger.Logger

	parent    *Engine
	ancestors map[reflect.Type]bool

	mu    sync.Mutex
	state State
	err   error

	table  *schema.Table
	fields []Field
	refs   []*reference
}

// New returns an uninitialized engine for t. Nothing touches the database
// until Initialize or the first operation.
func New(t reflect.Type, g *gate.Gate, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Storage.DefaultLimit <= 0 {
		opts.Storage.DefaultLimit = config.DefaultLimit
	}
	if opts.Storage.UpdateLimit <= 0 {
		opts.Storage.UpdateLimit = config.DefaultUpdateLimit
	}

	var base string
	if t != nil {
		base = t.Name()
	}
	return &Engine{
		typ:       t,
		base:      base,
		gate:      g,
		opts:      opts,
		log:       opts.Logger,
		ancestors: map[reflect.Type]bool{},
	}
}

// State reports the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Type returns the model type.
func (e *Engine) Type() reflect.Type { return e.typ }

// TableName returns the root table name. Empty before initialization.
func (e *Engine) TableName() string {
	if e.table == nil {
		return ""
	}
	return e.table.Name
}

// Initialize discovers the schema and creates the tables. It runs once;
// later calls return the outcome of the first.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case Ready:
		return nil
	case Failed:
		return e.err
	}

	e.state = Initializing
	if err := e.build(); err != nil {
		return e.fail(err)
	}
	if err := e.gate.Transact(ctx, func(tx gate.Execer) error { return e.create(ctx, tx) }); err != nil {
		return e.fail(err)
	}
	e.state = Ready
	return nil
}

func (e *Engine) fail(err error) error {
	e.state = Failed
	e.err = fmt.Errorf("failed to initialize storage for %v: %w", e.typ, err)
	e.log.Error("storage initialization failed", "type", fmt.Sprint(e.typ), "error", err)
	return e.err
}

// build flattens the type and builds the element engines, recursively.
func (e *Engine) build() error {
	if e.typ == nil {
		return errs.NewSchemaError(nil, "", "nil model type", nil)
	}
	if e.base == "" && e.opts.TableName == "" {
		return errs.NewSchemaError(e.typ, "", "unnamed type needs an explicit table name", nil)
	}
	if e.base == "" {
		e.base = e.opts.TableName
	}

	s, err := pathengine.Flatten(e.typ)
	if err != nil {
		return err
	}
	e.ancestors[e.typ] = true

	link := schema.Link{}
	if len(s.Collections()) > 0 {
		link.Primary = schema.PrimaryKeyColumn(e.base)
	}
	if e.parent != nil {
		link.Foreign = schema.ForeignKeyColumn(e.parent.base)
	}

	name := e.opts.TableName
	if name == "" || e.parent != nil {
		name = e.opts.Storage.TableName(e.base)
	}
	table, err := schema.NewTable(name, s, link)
	if err != nil {
		return err
	}
	e.table = table

	e.fields = e.fields[:0]
	e.refs = e.refs[:0]
	return e.bind(s.Tree)
}

// bind records the leaves of the tree and builds an element engine for
// every collection, nested composites included.
func (e *Engine) bind(nodes []*pathengine.Node) error {
	for _, n := range nodes {
		switch n.Kind {
		case pathengine.KindLeaf:
			e.fields = append(e.fields, Field{Path: n.Leaf.Name, Type: n.Leaf.Type})
		case pathengine.KindComposite:
			if err := e.bind(n.Children); err != nil {
				return err
			}
		case pathengine.KindCollection:
			ref, err := e.newReference(n.Collection)
			if err != nil {
				return err
			}
			e.refs = append(e.refs, ref)
		default:
			return errs.NewSchemaError(e.typ, n.Path, fmt.Sprintf("unexpected node kind %v", n.Kind), nil)
		}
	}
	return nil
}

// child returns the engine of a collection field's element table.
func (e *Engine) child(elem reflect.Type, field string) (*Engine, error) {
	if e.ancestors[elem] {
		return nil, &errs.UnsupportedTypeError{Type: elem, Path: field, Reason: "cyclic collection"}
	}

	opts := e.opts
	opts.TableName = ""
	c := New(elem, e.gate, opts)
	c.parent = e
	c.base = e.base + "_" + strings.ReplaceAll(field, ".", "_")
	for t := range e.ancestors {
		c.ancestors[t] = true
	}
	if err := c.build(); err != nil {
		return nil, err
	}
	c.state = Ready
	return c, nil
}

// create runs the DDL of this table and every element table.
func (e *Engine) create(ctx context.Context, tx gate.Execer) error {
	for _, stmt := range e.table.CreateStatements() {
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			return err
		}
	}
	e.log.Info("table ready", "table", e.table.Name, "columns", len(e.table.Columns))
	for _, ref := range e.refs {
		if err := ref.engine.create(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// ensure initializes lazily.
func (e *Engine) ensure(ctx context.Context) error {
	return e.Initialize(ctx)
}

// CreateTable creates the tables if they do not exist, e.g. after
// DeleteTable.
func (e *Engine) CreateTable(ctx context.Context) error {
	if err := e.ensure(ctx); err != nil {
		return err
	}
	return e.gate.Transact(ctx, func(tx gate.Execer) error { return e.create(ctx, tx) })
}

// Field is one flattened leaf path and its Go type.
type Field struct {
	Path string
	Type reflect.Type
}

// Fields returns the flattened leaf paths in column order.
func (e *Engine) Fields(ctx context.Context) ([]Field, error) {
	if err := e.ensure(ctx); err != nil {
		return nil, err
	}
	return append([]Field(nil), e.fields...), nil
}

// Tables returns the root table name followed by every element table name,
// depth first.
func (e *Engine) Tables(ctx context.Context) ([]string, error) {
	if err := e.ensure(ctx); err != nil {
		return nil, err
	}
	return e.tableNames(), nil
}

func (e *Engine) tableNames() []string {
	names := []string{e.table.Name}
	for _, ref := range e.refs {
		names = append(names, ref.engine.tableNames()...)
	}
	return names
}
