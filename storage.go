package sqliteorm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amir734jj/Sqlite-ORM/internal/engine"
)

// Filter maps property paths to the values a row must hold. A nil value
// matches NULL.
type Filter = map[string]any

// Field is one flattened property path and its leaf type.
type Field = engine.Field

// Storage persists values of T. It is safe for concurrent use.
type Storage[T any] struct {
	db     *DB
	engine *engine.Engine
	fields []Field
}

// New creates the tables for T if needed and returns its storage.
func New[T any](ctx context.Context, db *DB, opts ...Option) (*Storage[T], error) {
	if err := db.check(); err != nil {
		return nil, err
	}
	s := apply(opts)

	storage := db.cfg.Storage
	if s.defaultLimit > 0 {
		storage.DefaultLimit = s.defaultLimit
	}
	if s.updateLimit > 0 {
		storage.UpdateLimit = s.updateLimit
	}
	log := s.logger
	if log == nil {
		log = db.log
	}

	e := engine.New(reflect.TypeFor[T](), db.gate, engine.Options{
		TableName: s.tableName,
		Storage:   storage,
		Logger:    log,
	})
	if err := e.Initialize(ctx); err != nil {
		return nil, err
	}
	fields, err := e.Fields(ctx)
	if err != nil {
		return nil, err
	}
	return &Storage[T]{db: db, engine: e, fields: fields}, nil
}

// TableName returns the name of the root table.
func (s *Storage[T]) TableName() string { return s.engine.TableName() }

// Tables returns the root table followed by the element tables.
func (s *Storage[T]) Tables(ctx context.Context) ([]string, error) {
	if err := s.db.check(); err != nil {
		return nil, err
	}
	return s.engine.Tables(ctx)
}

// Schema returns the flattened property paths in column order.
func (s *Storage[T]) Schema() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// CreateTable recreates the tables, e.g. after DeleteTable.
func (s *Storage[T]) CreateTable(ctx context.Context) error {
	if err := s.db.check(); err != nil {
		return err
	}
	return s.engine.CreateTable(ctx)
}

// Add stores item and its collections atomically.
func (s *Storage[T]) Add(ctx context.Context, item T) error {
	return s.AddAll(ctx, item)
}

// AddAll stores every item in one unit of work.
func (s *Storage[T]) AddAll(ctx context.Context, items ...T) error {
	if err := s.db.check(); err != nil {
		return err
	}
	return s.engine.Add(ctx, valuesOf(items)...)
}

// Find returns the first row matching filter.
func (s *Storage[T]) Find(ctx context.Context, filter Filter) (T, error) {
	if err := s.db.check(); err != nil {
		return zero[T](), err
	}
	v, err := s.engine.Find(ctx, filter)
	return one[T](v, err)
}

// FindByExample returns the first row equal to model on every leaf that
// holds a value.
func (s *Storage[T]) FindByExample(ctx context.Context, model T) (T, error) {
	if err := s.db.check(); err != nil {
		return zero[T](), err
	}
	v, err := s.engine.FindByExample(ctx, reflect.ValueOf(model))
	return one[T](v, err)
}

// FindFunc returns the first row for which pred holds.
func (s *Storage[T]) FindFunc(ctx context.Context, pred func(T) bool) (T, error) {
	if err := s.db.check(); err != nil {
		return zero[T](), err
	}
	v, err := s.engine.FindFunc(ctx, predicate(pred))
	return one[T](v, err)
}

// FindAll returns up to limit rows matching filter. A limit of zero or less
// returns every match.
func (s *Storage[T]) FindAll(ctx context.Context, filter Filter, limit int) ([]T, error) {
	if err := s.db.check(); err != nil {
		return nil, err
	}
	vs, err := s.engine.FindAll(ctx, filter, limit)
	return many[T](vs, err)
}

// FindAllByExample returns up to limit rows equal to model on every leaf
// that holds a value.
func (s *Storage[T]) FindAllByExample(ctx context.Context, model T, limit int) ([]T, error) {
	if err := s.db.check(); err != nil {
		return nil, err
	}
	vs, err := s.engine.FindAllByExample(ctx, reflect.ValueOf(model), limit)
	return many[T](vs, err)
}

// FindAllFunc returns every row for which pred holds.
func (s *Storage[T]) FindAllFunc(ctx context.Context, pred func(T) bool) ([]T, error) {
	if err := s.db.check(); err != nil {
		return nil, err
	}
	vs, err := s.engine.FindAllFunc(ctx, predicate(pred))
	return many[T](vs, err)
}

// Update assigns destination to at most limit rows matching source and
// returns how many changed. A limit of zero or less changes one row.
func (s *Storage[T]) Update(ctx context.Context, source, destination Filter, limit int) (int64, error) {
	if err := s.db.check(); err != nil {
		return 0, err
	}
	return s.engine.Update(ctx, source, destination, limit)
}

// UpdateByExample overwrites the first row equal to source with the leaves
// of destination. Collections are left as they are.
func (s *Storage[T]) UpdateByExample(ctx context.Context, source, destination T) (int64, error) {
	if err := s.db.check(); err != nil {
		return 0, err
	}
	return s.engine.UpdateByExample(ctx, reflect.ValueOf(source), reflect.ValueOf(destination))
}

// UpdateFunc assigns destination to every row for which pred holds.
func (s *Storage[T]) UpdateFunc(ctx context.Context, pred func(T) bool, destination Filter) (int64, error) {
	if err := s.db.check(); err != nil {
		return 0, err
	}
	return s.engine.UpdateFunc(ctx, predicate(pred), destination)
}

// UpdateFuncByExample overwrites every row for which pred holds with the
// leaves of destination. Collections are not touched.
func (s *Storage[T]) UpdateFuncByExample(ctx context.Context, pred func(T) bool, destination T) (int64, error) {
	if err := s.db.check(); err != nil {
		return 0, err
	}
	return s.engine.UpdateFuncByExample(ctx, predicate(pred), reflect.ValueOf(destination))
}

// Delete removes at most limit rows matching filter together with their
// collections. A limit of zero or less uses the default limit.
func (s *Storage[T]) Delete(ctx context.Context, filter Filter, limit int) (int64, error) {
	if err := s.db.check(); err != nil {
		return 0, err
	}
	return s.engine.Delete(ctx, filter, limit)
}

// DeleteByExample removes one row equal to model.
func (s *Storage[T]) DeleteByExample(ctx context.Context, model T) (int64, error) {
	if err := s.db.check(); err != nil {
		return 0, err
	}
	return s.engine.DeleteByExample(ctx, reflect.ValueOf(model))
}

// DeleteAllOf removes one row per model in one unit of work.
func (s *Storage[T]) DeleteAllOf(ctx context.Context, models ...T) (int64, error) {
	if err := s.db.check(); err != nil {
		return 0, err
	}
	return s.engine.DeleteAllOf(ctx, valuesOf(models)...)
}

// DeleteFunc removes every row for which pred holds.
func (s *Storage[T]) DeleteFunc(ctx context.Context, pred func(T) bool) (int64, error) {
	if err := s.db.check(); err != nil {
		return 0, err
	}
	return s.engine.DeleteFunc(ctx, predicate(pred))
}

// DeleteAll empties the tables of T.
func (s *Storage[T]) DeleteAll(ctx context.Context) error {
	if err := s.db.check(); err != nil {
		return err
	}
	return s.engine.DeleteAll(ctx)
}

// DeleteTable drops the tables of T. CreateTable brings them back.
func (s *Storage[T]) DeleteTable(ctx context.Context) error {
	if err := s.db.check(); err != nil {
		return err
	}
	return s.engine.DeleteTable(ctx)
}

// Count returns the number of stored rows.
func (s *Storage[T]) Count(ctx context.Context) (int64, error) {
	if err := s.db.check(); err != nil {
		return 0, err
	}
	return s.engine.Count(ctx)
}

func valuesOf[T any](items []T) []reflect.Value {
	vs := make([]reflect.Value, len(items))
	for i := range items {
		vs[i] = reflect.ValueOf(&items[i]).Elem()
	}
	return vs
}

func predicate[T any](pred func(T) bool) func(reflect.Value) bool {
	if pred == nil {
		return nil
	}
	return func(v reflect.Value) bool { return pred(v.Interface().(T)) }
}

func zero[T any]() T {
	var t T
	return t
}

func one[T any](v reflect.Value, err error) (T, error) {
	if err != nil {
		return zero[T](), err
	}
	t, ok := v.Interface().(T)
	if !ok {
		return zero[T](), fmt.Errorf("stored value is %v, want %T", v.Type(), t)
	}
	return t, nil
}

func many[T any](vs []reflect.Value, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	out := make([]T, len(vs))
	for i, v := range vs {
		out[i] = v.Interface().(T)
	}
	return out, nil
}
