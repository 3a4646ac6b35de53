package schema

import (
	"fmt"
	"strings"
)

// MaxParams is SQLite's default host parameter limit per statement.
const MaxParams = 999

// Statement is parameter-bound SQL with its arguments.
type Statement struct {
	SQL  string
	Args []any
}

func (s Statement) String() string { return s.SQL }

// QuoteIdent double-quotes an identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// CreateStatements returns the idempotent DDL for the table, plus an index
// on the foreign linking key of element tables.
func (t *Table) CreateStatements() []Statement {
	defs := []string{QuoteIdent(IDColumn) + " INTEGER PRIMARY KEY AUTOINCREMENT"}
	for _, c := range t.Columns {
		defs = append(defs, QuoteIdent(c.Name)+" "+string(c.Storage))
	}
	if t.Link.Primary != "" {
		defs = append(defs, QuoteIdent(t.Link.Primary)+" TEXT")
	}
	if t.Link.Foreign != "" {
		defs = append(defs, QuoteIdent(t.Link.Foreign)+" TEXT")
	}

	stmts := []Statement{{
		SQL: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", QuoteIdent(t.Name), strings.Join(defs, ", ")),
	}}
	if t.Link.Foreign != "" {
		stmts = append(stmts, Statement{
			SQL: fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				QuoteIdent("IX_"+t.Name+"_"+t.Link.Foreign), QuoteIdent(t.Name), QuoteIdent(t.Link.Foreign)),
		})
	}
	return stmts
}

// Insert renders multi-row inserts for rows laid out as InsertColumns.
// Rows are split across statements to stay under MaxParams.
func (t *Table) Insert(rows [][]any) []Statement {
	if len(rows) == 0 {
		return nil
	}

	cols := t.InsertColumns()
	perRow := len(cols)
	batch := MaxParams / perRow
	if batch < 1 {
		batch = 1
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", perRow), ", ") + ")"
	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", QuoteIdent(t.Name), quoteAll(cols))

	var stmts []Statement
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))

		tuples := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*perRow)
		for _, row := range rows[start:end] {
			tuples = append(tuples, tuple)
			args = append(args, row...)
		}
		stmts = append(stmts, Statement{SQL: head + strings.Join(tuples, ", "), Args: args})
	}
	return stmts
}

// Select reads SelectColumns of matching rows in insertion order.
// A limit of zero or less reads every match.
func (t *Table) Select(conds []Condition, limit int) Statement {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", quoteAll(t.SelectColumns()), QuoteIdent(t.Name))
	args := writeWhere(&b, conds)
	b.WriteString(" ORDER BY " + QuoteIdent(IDColumn))
	args = writeLimit(&b, args, limit)
	return Statement{SQL: b.String(), Args: args}
}

// SelectLinkKeys reads the primary linking keys of the rows a Delete with
// the same arguments would remove.
func (t *Table) SelectLinkKeys(conds []Condition, limit int) Statement {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s IN ", QuoteIdent(t.Link.Primary), QuoteIdent(t.Name), QuoteIdent(IDColumn))
	args := t.writeRowIDs(&b, conds, limit)
	return Statement{SQL: b.String(), Args: args}
}

// Update assigns set to at most limit rows matching where.
func (t *Table) Update(where, set []Condition, limit int) Statement {
	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET ", QuoteIdent(t.Name))

	args := make([]any, 0, len(set)+len(where)+1)
	for i, c := range set {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(QuoteIdent(c.Column) + " = ?")
		args = append(args, c.Value)
	}

	fmt.Fprintf(&b, " WHERE %s IN ", QuoteIdent(IDColumn))
	args = append(args, t.writeRowIDs(&b, where, limit)...)
	return Statement{SQL: b.String(), Args: args}
}

// Delete removes at most limit rows matching conds. A limit of zero or less
// removes every match.
func (t *Table) Delete(conds []Condition, limit int) Statement {
	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM %s", QuoteIdent(t.Name))
	if limit <= 0 {
		args := writeWhere(&b, conds)
		return Statement{SQL: b.String(), Args: args}
	}
	fmt.Fprintf(&b, " WHERE %s IN ", QuoteIdent(IDColumn))
	args := t.writeRowIDs(&b, conds, limit)
	return Statement{SQL: b.String(), Args: args}
}

// DeleteByForeign removes the element rows owned by one parent key.
func (t *Table) DeleteByForeign(key string) Statement {
	return t.Delete([]Condition{{Column: t.Link.Foreign, Value: key}}, 0)
}

// DeleteAll removes every row.
func (t *Table) DeleteAll() Statement {
	return Statement{SQL: "DELETE FROM " + QuoteIdent(t.Name)}
}

// Drop removes the table.
func (t *Table) Drop() Statement {
	return Statement{SQL: "DROP TABLE IF EXISTS " + QuoteIdent(t.Name)}
}

// Count counts every row.
func (t *Table) Count() Statement {
	return Statement{SQL: "SELECT COUNT(*) FROM " + QuoteIdent(t.Name)}
}

// writeRowIDs writes a parenthesized subquery selecting the row ids of at
// most limit matches.
func (t *Table) writeRowIDs(b *strings.Builder, conds []Condition, limit int) []any {
	fmt.Fprintf(b, "(SELECT %s FROM %s", QuoteIdent(IDColumn), QuoteIdent(t.Name))
	args := writeWhere(b, conds)
	b.WriteString(" ORDER BY " + QuoteIdent(IDColumn))
	args = writeLimit(b, args, limit)
	b.WriteString(")")
	return args
}

func writeWhere(b *strings.Builder, conds []Condition) []any {
	if len(conds) == 0 {
		return nil
	}
	args := make([]any, 0, len(conds))
	b.WriteString(" WHERE ")
	for i, c := range conds {
		if i > 0 {
			b.WriteString(" AND ")
		}
		if c.Value == nil {
			b.WriteString(QuoteIdent(c.Column) + " IS NULL")
			continue
		}
		b.WriteString(QuoteIdent(c.Column) + " = ?")
		args = append(args, c.Value)
	}
	return args
}

func writeLimit(b *strings.Builder, args []any, limit int) []any {
	if limit <= 0 {
		return args
	}
	b.WriteString(" LIMIT ?")
	return append(args, limit)
}
