package engine

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"github.com/amir734jj/Sqlite-ORM/internal/errs"
	"github.com/amir734jj/Sqlite-ORM/internal/gate"
	"github.com/amir734jj/Sqlite-ORM/internal/schema"
)

func exec(ctx context.Context, tx gate.Execer, stmt schema.Statement) (int64, error) {
	res, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// Add inserts items and their collections as one unit of work.
func (e *Engine) Add(ctx context.Context, items ...reflect.Value) error {
	if err := e.ensure(ctx); err != nil {
		return err
	}
	for _, item := range items {
		if item.Type() != e.typ {
			return errs.NewValidationError("", fmt.Sprintf("cannot store %v in %s", item.Type(), e.table.Name), nil)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return e.gate.Transact(ctx, func(tx gate.Execer) error {
		return e.insert(ctx, tx, items, nil)
	})
}

// insert writes items in batches. owners holds the foreign linking key of
// each item and is nil for root rows.
func (e *Engine) insert(ctx context.Context, tx gate.Execer, items []reflect.Value, owners []string) error {
	rows := make([][]any, len(items))
	keys := make([]string, len(items))
	for i, item := range items {
		row, err := e.table.Values(item)
		if err != nil {
			return err
		}
		if e.table.Link.Primary != "" {
			keys[i] = newLinkKey(row)
			row = append(row, keys[i])
		}
		if e.table.Link.Foreign != "" {
			row = append(row, owners[i])
		}
		rows[i] = row
	}

	for _, stmt := range e.table.Insert(rows) {
		if _, err := exec(ctx, tx, stmt); err != nil {
			return err
		}
	}

	for _, ref := range e.refs {
		var children []reflect.Value
		var childOwners []string
		for i, item := range items {
			for _, child := range ref.elements(item) {
				children = append(children, child)
				childOwners = append(childOwners, keys[i])
			}
		}
		if len(children) == 0 {
			continue
		}
		if err := ref.engine.insert(ctx, tx, children, childOwners); err != nil {
			return err
		}
	}
	return nil
}

// Update assigns set to at most limit rows matching where. A limit of zero
// or less uses the configured update limit. Collection fields are not
// touched.
func (e *Engine) Update(ctx context.Context, where, set map[string]any, limit int) (int64, error) {
	if err := e.ensure(ctx); err != nil {
		return 0, err
	}
	if len(set) == 0 {
		return 0, errs.NewValidationError("", "empty update destination", nil)
	}
	whereConds, err := e.filter(where)
	if err != nil {
		return 0, err
	}
	setConds, err := e.filter(set)
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		limit = e.opts.Storage.UpdateLimit
	}
	return e.update(ctx, e.table.Update(whereConds, setConds, limit))
}

// UpdateByExample overwrites every leaf of the first row equal to source
// with the leaves of destination.
func (e *Engine) UpdateByExample(ctx context.Context, source, destination reflect.Value) (int64, error) {
	if err := e.ensure(ctx); err != nil {
		return 0, err
	}
	whereConds, err := e.example(source)
	if err != nil {
		return 0, err
	}
	setConds, err := e.assignments(destination)
	if err != nil {
		return 0, err
	}
	return e.update(ctx, e.table.Update(whereConds, setConds, e.opts.Storage.UpdateLimit))
}

// UpdateFunc assigns set to every row for which pred holds.
func (e *Engine) UpdateFunc(ctx context.Context, pred func(reflect.Value) bool, set map[string]any) (int64, error) {
	if len(set) == 0 {
		return 0, errs.NewValidationError("", "empty update destination", nil)
	}
	matches, err := e.matching(ctx, pred)
	if err != nil {
		return 0, err
	}
	setConds, err := e.filter(set)
	if err != nil {
		return 0, err
	}
	return e.updateEach(ctx, matches, setConds)
}

// UpdateFuncByExample overwrites every leaf of each row for which pred holds
// with the leaves of destination.
func (e *Engine) UpdateFuncByExample(ctx context.Context, pred func(reflect.Value) bool, destination reflect.Value) (int64, error) {
	if err := e.ensure(ctx); err != nil {
		return 0, err
	}
	setConds, err := e.assignments(destination)
	if err != nil {
		return 0, err
	}
	matches, err := e.matching(ctx, pred)
	if err != nil {
		return 0, err
	}
	return e.updateEach(ctx, matches, setConds)
}

// updateEach applies setConds to every matched row in one unit of work.
func (e *Engine) updateEach(ctx context.Context, matches []record, setConds []schema.Condition) (int64, error) {
	var total int64
	err := e.gate.Transact(ctx, func(tx gate.Execer) error {
		for _, rec := range matches {
			n, err := exec(ctx, tx, e.table.Update(byID(rec.id), setConds, 1))
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

func (e *Engine) update(ctx context.Context, stmt schema.Statement) (int64, error) {
	var n int64
	err := e.gate.Transact(ctx, func(tx gate.Execer) error {
		var err error
		n, err = exec(ctx, tx, stmt)
		return err
	})
	return n, err
}

// assignments turns every leaf of model into a SET term.
func (e *Engine) assignments(model reflect.Value) ([]schema.Condition, error) {
	if model.Type() != e.typ {
		return nil, errs.NewValidationError("", fmt.Sprintf("destination is %v, want %v", model.Type(), e.typ), nil)
	}
	vals, err := e.table.Values(model)
	if err != nil {
		return nil, err
	}
	set := make([]schema.Condition, len(vals))
	for i, c := range e.table.Columns {
		set[i] = schema.Condition{Column: c.Name, Value: vals[i]}
	}
	return set, nil
}

func byID(id int64) []schema.Condition {
	return []schema.Condition{{Column: schema.IDColumn, Value: id}}
}

// Delete removes at most limit rows matching filter, and their element
// rows. A limit of zero or less uses the configured default limit.
func (e *Engine) Delete(ctx context.Context, filter map[string]any, limit int) (int64, error) {
	if err := e.ensure(ctx); err != nil {
		return 0, err
	}
	conds, err := e.filter(filter)
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		limit = e.opts.Storage.DefaultLimit
	}
	return e.remove(ctx, conds, limit)
}

// DeleteByExample removes the first row equal to model.
func (e *Engine) DeleteByExample(ctx context.Context, model reflect.Value) (int64, error) {
	if err := e.ensure(ctx); err != nil {
		return 0, err
	}
	conds, err := e.example(model)
	if err != nil {
		return 0, err
	}
	return e.remove(ctx, conds, 1)
}

// DeleteAllOf removes one row per model as a single unit of work.
func (e *Engine) DeleteAllOf(ctx context.Context, models ...reflect.Value) (int64, error) {
	if err := e.ensure(ctx); err != nil {
		return 0, err
	}
	all := make([][]schema.Condition, len(models))
	for i, m := range models {
		conds, err := e.example(m)
		if err != nil {
			return 0, err
		}
		all[i] = conds
	}

	var total int64
	err := e.gate.Transact(ctx, func(tx gate.Execer) error {
		for _, conds := range all {
			n, err := e.deleteWhere(ctx, tx, conds, 1)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

// DeleteFunc removes every row for which pred holds.
func (e *Engine) DeleteFunc(ctx context.Context, pred func(reflect.Value) bool) (int64, error) {
	matches, err := e.matching(ctx, pred)
	if err != nil {
		return 0, err
	}

	var total int64
	err = e.gate.Transact(ctx, func(tx gate.Execer) error {
		for _, rec := range matches {
			n, err := e.deleteWhere(ctx, tx, byID(rec.id), 1)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

func (e *Engine) remove(ctx context.Context, conds []schema.Condition, limit int) (int64, error) {
	var n int64
	err := e.gate.Transact(ctx, func(tx gate.Execer) error {
		var err error
		n, err = e.deleteWhere(ctx, tx, conds, limit)
		return err
	})
	return n, err
}

// deleteWhere removes matching rows after removing the element rows they
// own, recursively.
func (e *Engine) deleteWhere(ctx context.Context, tx gate.Execer, conds []schema.Condition, limit int) (int64, error) {
	if len(e.refs) > 0 {
		keys, err := e.linkKeys(ctx, tx, conds, limit)
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			for _, ref := range e.refs {
				if err := ref.engine.deleteOwned(ctx, tx, key); err != nil {
					return 0, err
				}
			}
		}
	}
	return exec(ctx, tx, e.table.Delete(conds, limit))
}

// deleteOwned removes the element rows of one parent.
func (e *Engine) deleteOwned(ctx context.Context, tx gate.Execer, key string) error {
	if len(e.refs) > 0 {
		_, err := e.deleteWhere(ctx, tx, []schema.Condition{{Column: e.table.Link.Foreign, Value: key}}, 0)
		return err
	}
	_, err := exec(ctx, tx, e.table.DeleteByForeign(key))
	return err
}

// linkKeys reads the primary linking keys of the rows Delete would remove.
// The cursor is drained before returning so the transaction can continue.
func (e *Engine) linkKeys(ctx context.Context, tx gate.Execer, conds []schema.Condition, limit int) ([]string, error) {
	stmt := e.table.SelectLinkKeys(conds, limit)
	rows, err := tx.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key sql.NullString
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan linking key: %w", err)
		}
		if key.Valid {
			keys = append(keys, key.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.ExecutionError{Statement: stmt.SQL, Err: err}
	}
	return keys, rows.Close()
}

// DeleteAll removes every row of this table and of every element table.
func (e *Engine) DeleteAll(ctx context.Context) error {
	if err := e.ensure(ctx); err != nil {
		return err
	}
	return e.gate.Transact(ctx, func(tx gate.Execer) error {
		return e.each(func(t *schema.Table) error {
			_, err := exec(ctx, tx, t.DeleteAll())
			return err
		})
	})
}

// DeleteTable drops this table and every element table.
func (e *Engine) DeleteTable(ctx context.Context) error {
	if err := e.ensure(ctx); err != nil {
		return err
	}
	return e.gate.Transact(ctx, func(tx gate.Execer) error {
		return e.each(func(t *schema.Table) error {
			_, err := tx.ExecContext(ctx, t.Drop().SQL)
			if err == nil {
				e.log.Info("table dropped", "table", t.Name)
			}
			return err
		})
	})
}

// each visits element tables before their owners.
func (e *Engine) each(fn func(*schema.Table) error) error {
	for _, ref := range e.refs {
		if err := ref.engine.each(fn); err != nil {
			return err
		}
	}
	return fn(e.table)
}
