// Package dump copies whole tables, element tables included, between a
// database and a portable JSON or YAML document.
package dump

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/amir734jj/Sqlite-ORM/internal/gate"
	"github.com/amir734jj/Sqlite-ORM/internal/schema"
)

// Version is the dump document version written by Export.
const Version = 1

// blobKey marks a BLOB cell in a portable document.
const blobKey = "base64"

// Dump is a set of tables with their DDL and rows.
type Dump struct {
	Version int     `json:"version" yaml:"version"`
	Tables  []Table `json:"tables" yaml:"tables"`
}

// Table is one table. Rows hold int64, float64, string, []byte or nil
// cells in Columns order.
type Table struct {
	Name    string   `json:"name" yaml:"name"`
	Schema  string   `json:"schema" yaml:"schema"`
	Indexes []string `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	Columns []string `json:"columns" yaml:"columns"`
	Rows    [][]any  `json:"rows" yaml:"rows"`
}

// Rows returns the total row count.
func (d *Dump) Rows() int {
	n := 0
	for _, t := range d.Tables {
		n += len(t.Rows)
	}
	return n
}

type definition struct {
	schema  string
	indexes []string
}

// definitions reads the DDL of every user table and its indexes.
func definitions(ctx context.Context, g *gate.Gate) (map[string]*definition, error) {
	defs := map[string]*definition{}
	var indexes [][2]string
	err := g.Query(ctx, "SELECT type, tbl_name, sql FROM sqlite_master WHERE sql IS NOT NULL AND name NOT LIKE 'sqlite_%' ORDER BY name",
		func(rows *sql.Rows) error {
			for rows.Next() {
				var typ, table, ddl string
				if err := rows.Scan(&typ, &table, &ddl); err != nil {
					return fmt.Errorf("failed to scan schema: %w", err)
				}
				switch typ {
				case "table":
					defs[table] = &definition{schema: ddl}
				case "index":
					indexes = append(indexes, [2]string{table, ddl})
				}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	for _, ix := range indexes {
		if def, ok := defs[ix[0]]; ok {
			def.indexes = append(def.indexes, ix[1])
		}
	}
	return defs, nil
}

// Export reads the named tables, or every table when none are named.
func Export(ctx context.Context, g *gate.Gate, tables ...string) (*Dump, error) {
	defs, err := definitions(ctx, g)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		for name := range defs {
			tables = append(tables, name)
		}
		sort.Strings(tables)
	}

	for _, name := range tables {
		if _, ok := defs[name]; !ok {
			return nil, fmt.Errorf("no table named %q", name)
		}
	}

	d := &Dump{Version: Version, Tables: make([]Table, len(tables))}
	eg, ctx := errgroup.WithContext(ctx)
	for i, name := range tables {
		def := defs[name]
		eg.Go(func() error {
			t, err := readTable(ctx, g, name)
			if err != nil {
				return err
			}
			t.Schema = def.schema
			t.Indexes = def.indexes
			d.Tables[i] = t
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func readTable(ctx context.Context, g *gate.Gate, name string) (Table, error) {
	t := Table{Name: name}
	err := g.Query(ctx, "SELECT * FROM "+schema.QuoteIdent(name)+" ORDER BY rowid", func(rows *sql.Rows) error {
		cols, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read columns of %s: %w", name, err)
		}
		t.Columns = cols
		for rows.Next() {
			row := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range row {
				ptrs[i] = &row[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return fmt.Errorf("failed to scan %s: %w", name, err)
			}
			t.Rows = append(t.Rows, row)
		}
		return nil
	})
	return t, err
}

// Restore writes every table of d in one unit of work and returns the
// number of rows written. Missing tables are created from their DDL. Rows
// whose key already exists replace the stored row.
func Restore(ctx context.Context, g *gate.Gate, d *Dump) (int64, error) {
	if d.Version != Version {
		return 0, fmt.Errorf("unsupported dump version %d", d.Version)
	}
	existing, err := g.Tables(ctx)
	if err != nil {
		return 0, err
	}
	present := map[string]bool{}
	for _, name := range existing {
		present[name] = true
	}

	var total int64
	err = g.Transact(ctx, func(tx gate.Execer) error {
		for _, t := range d.Tables {
			if !present[t.Name] {
				if err := create(ctx, tx, t); err != nil {
					return err
				}
			}
			n, err := insert(ctx, tx, t)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func create(ctx context.Context, tx gate.Execer, t Table) error {
	if t.Schema == "" {
		return fmt.Errorf("table %s does not exist and the dump has no schema for it", t.Name)
	}
	for _, ddl := range append([]string{t.Schema}, t.Indexes...) {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

func insert(ctx context.Context, tx gate.Execer, t Table) (int64, error) {
	if len(t.Rows) == 0 {
		return 0, nil
	}
	if len(t.Columns) == 0 {
		return 0, fmt.Errorf("table %s has rows but no columns", t.Name)
	}

	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = schema.QuoteIdent(c)
	}
	head := "INSERT OR REPLACE INTO " + schema.QuoteIdent(t.Name) + " (" + strings.Join(cols, ", ") + ") VALUES "
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	batch := max(schema.MaxParams/len(cols), 1)

	var total int64
	for start := 0; start < len(t.Rows); start += batch {
		end := min(start+batch, len(t.Rows))
		tuples := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*len(cols))
		for i, row := range t.Rows[start:end] {
			if len(row) != len(cols) {
				return 0, fmt.Errorf("table %s row %d has %d cells, want %d", t.Name, start+i, len(row), len(cols))
			}
			tuples = append(tuples, tuple)
			args = append(args, row...)
		}
		res, err := tx.ExecContext(ctx, head+strings.Join(tuples, ", "), args...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		total += n
	}
	return total, nil
}

// portable returns a copy of d with BLOB cells spelled as base64 objects.
func (d *Dump) portable() *Dump {
	out := &Dump{Version: d.Version, Tables: make([]Table, len(d.Tables))}
	for i, t := range d.Tables {
		rows := make([][]any, len(t.Rows))
		for r, row := range t.Rows {
			cells := make([]any, len(row))
			for c, cell := range row {
				if b, ok := cell.([]byte); ok {
					cell = map[string]any{blobKey: base64.StdEncoding.EncodeToString(b)}
				}
				cells[c] = cell
			}
			rows[r] = cells
		}
		t.Rows = rows
		out.Tables[i] = t
	}
	return out
}

// fromPortable turns decoded cells back into driver values in place.
func (d *Dump) fromPortable() error {
	for _, t := range d.Tables {
		for r, row := range t.Rows {
			for c, cell := range row {
				v, err := cellValue(cell)
				if err != nil {
					return fmt.Errorf("table %s row %d column %d: %w", t.Name, r, c, err)
				}
				row[c] = v
			}
		}
	}
	return nil
}

func cellValue(cell any) (any, error) {
	switch v := cell.(type) {
	case nil, string, int64, float64, []byte, bool:
		return v, nil
	case int:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		return v.Float64()
	case map[string]any:
		s, ok := v[blobKey].(string)
		if !ok || len(v) != 1 {
			return nil, errors.New("unexpected object cell")
		}
		return base64.StdEncoding.DecodeString(s)
	}
	return nil, fmt.Errorf("unexpected cell type %T", cell)
}
