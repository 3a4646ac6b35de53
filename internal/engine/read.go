package engine

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"github.com/amir734jj/Sqlite-ORM/internal/errs"
	"github.com/amir734jj/Sqlite-ORM/internal/pathengine"
	"github.com/amir734jj/Sqlite-ORM/internal/schema"
)

// record is one row read back with its synthetic keys.
type record struct {
	id    int64
	key   string
	value reflect.Value
}

// load reads matching rows under the gate lock, then fills their
// collections with one query per row and collection field.
func (e *Engine) load(ctx context.Context, conds []schema.Condition, limit int) ([]record, error) {
	stmt := e.table.Select(conds, limit)
	width := len(e.table.SelectColumns())

	var records []record
	err := e.gate.Query(ctx, stmt.SQL, func(rows *sql.Rows) error {
		for rows.Next() {
			raw := make([]any, width)
			ptrs := make([]any, width)
			for i := range raw {
				ptrs[i] = &raw[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return fmt.Errorf("failed to scan %s: %w", e.table.Name, err)
			}
			rec, err := e.decode(raw)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	}, stmt.Args...)
	if err != nil {
		return nil, err
	}

	for _, ref := range e.refs {
		for _, rec := range records {
			if rec.key == "" {
				continue
			}
			children, err := ref.engine.load(ctx, []schema.Condition{{Column: ref.engine.table.Link.Foreign, Value: rec.key}}, 0)
			if err != nil {
				return nil, err
			}
			if err := ref.assign(rec.value, values(children)); err != nil {
				return nil, err
			}
		}
	}
	return records, nil
}

// decode turns raw SelectColumns values into a record.
func (e *Engine) decode(raw []any) (record, error) {
	var rec record
	id, ok := raw[0].(int64)
	if !ok {
		return rec, fmt.Errorf("unexpected row id %T in %s", raw[0], e.table.Name)
	}
	rec.id = id

	n := len(e.table.Columns)
	rec.value = pathengine.MaterializeDefault(e.typ)
	if err := e.table.Populate(rec.value, raw[1:1+n]); err != nil {
		return rec, fmt.Errorf("failed to read %s row %d: %w", e.table.Name, id, err)
	}

	if e.table.Link.Primary != "" {
		switch k := raw[1+n].(type) {
		case string:
			rec.key = k
		case []byte:
			rec.key = string(k)
		}
	}
	return rec, nil
}

func values(records []record) []reflect.Value {
	out := make([]reflect.Value, len(records))
	for i, r := range records {
		out[i] = r.value
	}
	return out
}

func (e *Engine) filter(filter map[string]any) ([]schema.Condition, error) {
	return e.table.Conditions(filter)
}

func (e *Engine) example(model reflect.Value) ([]schema.Condition, error) {
	if model.Type() != e.typ {
		return nil, errs.NewValidationError("", fmt.Sprintf("example is %v, want %v", model.Type(), e.typ), nil)
	}
	return e.table.ExampleConditions(model)
}

// Find returns the first row matching filter, or ErrNotFound.
func (e *Engine) Find(ctx context.Context, filter map[string]any) (reflect.Value, error) {
	if err := e.ensure(ctx); err != nil {
		return reflect.Value{}, err
	}
	conds, err := e.filter(filter)
	if err != nil {
		return reflect.Value{}, err
	}
	return e.first(ctx, conds)
}

// FindByExample returns the first row equal to model on every leaf that
// holds a value.
func (e *Engine) FindByExample(ctx context.Context, model reflect.Value) (reflect.Value, error) {
	if err := e.ensure(ctx); err != nil {
		return reflect.Value{}, err
	}
	conds, err := e.example(model)
	if err != nil {
		return reflect.Value{}, err
	}
	return e.first(ctx, conds)
}

// FindFunc returns the first row, in insertion order, for which pred holds.
func (e *Engine) FindFunc(ctx context.Context, pred func(reflect.Value) bool) (reflect.Value, error) {
	matches, err := e.matching(ctx, pred)
	if err != nil {
		return reflect.Value{}, err
	}
	if len(matches) == 0 {
		return reflect.Value{}, errs.ErrNotFound
	}
	return matches[0].value, nil
}

func (e *Engine) first(ctx context.Context, conds []schema.Condition) (reflect.Value, error) {
	records, err := e.load(ctx, conds, 1)
	if err != nil {
		return reflect.Value{}, err
	}
	if len(records) == 0 {
		return reflect.Value{}, errs.ErrNotFound
	}
	return records[0].value, nil
}

// FindAll returns up to limit rows matching filter. A limit of zero or less
// returns every match.
func (e *Engine) FindAll(ctx context.Context, filter map[string]any, limit int) ([]reflect.Value, error) {
	if err := e.ensure(ctx); err != nil {
		return nil, err
	}
	conds, err := e.filter(filter)
	if err != nil {
		return nil, err
	}
	records, err := e.load(ctx, conds, limit)
	if err != nil {
		return nil, err
	}
	return values(records), nil
}

// FindAllByExample is FindAll with the conditions of FindByExample.
func (e *Engine) FindAllByExample(ctx context.Context, model reflect.Value, limit int) ([]reflect.Value, error) {
	if err := e.ensure(ctx); err != nil {
		return nil, err
	}
	conds, err := e.example(model)
	if err != nil {
		return nil, err
	}
	records, err := e.load(ctx, conds, limit)
	if err != nil {
		return nil, err
	}
	return values(records), nil
}

// FindAllFunc returns every row for which pred holds.
func (e *Engine) FindAllFunc(ctx context.Context, pred func(reflect.Value) bool) ([]reflect.Value, error) {
	matches, err := e.matching(ctx, pred)
	if err != nil {
		return nil, err
	}
	return values(matches), nil
}

// matching loads every row and keeps those accepted by pred.
func (e *Engine) matching(ctx context.Context, pred func(reflect.Value) bool) ([]record, error) {
	if err := e.ensure(ctx); err != nil {
		return nil, err
	}
	if pred == nil {
		return nil, errs.NewValidationError("", "nil predicate", nil)
	}
	records, err := e.load(ctx, nil, 0)
	if err != nil {
		return nil, err
	}
	kept := records[:0]
	for _, rec := range records {
		if pred(rec.value) {
			kept = append(kept, rec)
		}
	}
	return kept, nil
}

// Count returns the number of rows in the root table.
func (e *Engine) Count(ctx context.Context) (int64, error) {
	if err := e.ensure(ctx); err != nil {
		return 0, err
	}
	stmt := e.table.Count()
	var n int64
	err := e.gate.Query(ctx, stmt.SQL, func(rows *sql.Rows) error {
		if !rows.Next() {
			return fmt.Errorf("count of %s returned no row", e.table.Name)
		}
		return rows.Scan(&n)
	})
	return n, err
}
