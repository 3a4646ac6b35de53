package schema

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/amir734jj/Sqlite-ORM/internal/codec"
	"github.com/amir734jj/Sqlite-ORM/internal/errs"
	"github.com/amir734jj/Sqlite-ORM/internal/pathengine"
)

// IDColumn is the synthetic row id present in every table.
const IDColumn = "_Id_"

// PrimaryKeyColumn names the column holding a row's primary linking key.
func PrimaryKeyColumn(typeName string) string {
	return "Primary" + typeName + IDColumn
}

// ForeignKeyColumn names the column holding the parent's linking key in an
// element table.
func ForeignKeyColumn(parentTypeName string) string {
	return "Foreign" + parentTypeName + IDColumn
}

// Link names the linking key columns of a table. Empty means absent.
type Link struct {
	Primary string
	Foreign string
}

// Column is one stored leaf path.
type Column struct {
	Name    string
	Storage codec.StorageClass
	Path    *pathengine.Path
}

// Table maps a flattened schema onto a table.
type Table struct {
	Name    string
	Schema  *pathengine.Schema
	Columns []Column
	Link    Link
}

// NewTable resolves a storage class for every path of s.
func NewTable(name string, s *pathengine.Schema, link Link) (*Table, error) {
	if name == "" {
		return nil, errs.NewSchemaError(s.Root, "", "empty table name", nil)
	}

	t := &Table{Name: name, Schema: s, Link: link}
	for _, p := range s.Paths() {
		class, err := codec.Storage(p.Type)
		if err != nil {
			return nil, errs.NewSchemaError(s.Root, p.Name, "no storage class", err)
		}
		t.Columns = append(t.Columns, Column{Name: p.Name, Storage: class, Path: p})
	}
	return t, nil
}

// InsertColumns lists the columns written on insert, in order.
func (t *Table) InsertColumns() []string {
	cols := t.columnNames()
	if t.Link.Primary != "" {
		cols = append(cols, t.Link.Primary)
	}
	if t.Link.Foreign != "" {
		cols = append(cols, t.Link.Foreign)
	}
	return cols
}

// SelectColumns lists the columns read back, in order: the row id, every
// path, then the primary linking key when present.
func (t *Table) SelectColumns() []string {
	cols := append([]string{IDColumn}, t.columnNames()...)
	if t.Link.Primary != "" {
		cols = append(cols, t.Link.Primary)
	}
	return cols
}

func (t *Table) columnNames() []string {
	names := make([]string, 0, len(t.Columns)+2)
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Values encodes every path of root in column order. Paths behind a nil
// pointer encode as NULL.
func (t *Table) Values(root reflect.Value) ([]any, error) {
	values := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		v, ok := t.Schema.Value(c.Name, root)
		if !ok {
			continue
		}
		raw, err := codec.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", c.Name, err)
		}
		values[i] = raw
	}
	return values, nil
}

// Populate decodes raw column values into dst, which must be addressable and
// have its composite pointers allocated.
func (t *Table) Populate(dst reflect.Value, raw []any) error {
	for i, c := range t.Columns {
		v, err := codec.Decode(raw[i], c.Path.Type)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", c.Name, err)
		}
		if err := t.Schema.SetValue(c.Name, dst, v); err != nil {
			return fmt.Errorf("failed to set %s: %w", c.Name, err)
		}
	}
	return nil
}

// Condition is one `column = value` term of a conjunctive filter.
type Condition struct {
	Column string
	Value  any
}

// Conditions validates filter against the schema and encodes its values.
// The result is sorted by column so equal filters render equal SQL.
func (t *Table) Conditions(filter map[string]any) ([]Condition, error) {
	conds := make([]Condition, 0, len(filter))
	for key, value := range filter {
		p, ok := t.Schema.Path(key)
		if !ok {
			return nil, errs.NewValidationError(key, fmt.Sprintf("not a property of %v", t.Schema.Root), nil)
		}
		raw, err := codec.EncodeAs(value, p.Type)
		if err != nil {
			return nil, errs.NewValidationError(key, "bad filter value", err)
		}
		conds = append(conds, Condition{Column: key, Value: raw})
	}
	sort.Slice(conds, func(i, j int) bool { return conds[i].Column < conds[j].Column })
	return conds, nil
}

// ExampleConditions matches every leaf of root that holds a value. Leaves
// behind a nil pointer, and nil leaf pointers, are left out.
func (t *Table) ExampleConditions(root reflect.Value) ([]Condition, error) {
	var conds []Condition
	for _, c := range t.Columns {
		v, ok := t.Schema.Value(c.Name, root)
		if !ok {
			continue
		}
		if v.Kind() == reflect.Pointer && v.IsNil() {
			continue
		}
		raw, err := codec.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", c.Name, err)
		}
		if raw == nil {
			continue
		}
		conds = append(conds, Condition{Column: c.Name, Value: raw})
	}
	sort.Slice(conds, func(i, j int) bool { return conds[i].Column < conds[j].Column })
	return conds, nil
}
