// Package sqlview loads a merged table into an in-memory SQLite database
// so it can be filtered and aggregated with plain SQL.
package sqlview

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cellid-core/table"

	_ "modernc.org/sqlite"
)

// TableName is the name the merged table is loaded under.
const TableName = "cells"

// View is a read-mostly SQL handle over one merged table.
type View struct {
	db *sql.DB
}

// Open creates the database and inserts every row of t in one transaction.
func Open(ctx context.Context, t *table.Table) (*View, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	v := &View{db: db}
	if err := v.load(ctx, t); err != nil {
		db.Close()
		return nil, err
	}
	return v, nil
}

func (v *View) load(ctx context.Context, t *table.Table) error {
	cols := t.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("sqlview: table has no columns")
	}
	defs := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quote(c) + " " + affinity(t, i)
		marks[i] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", TableName, strings.Join(defs, ", "))
	if _, err := v.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create %s: %w", TableName, err)
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quote(c)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		TableName, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for n, r := range t.Rows {
		for i, val := range r {
			args[i] = val.Any()
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", n, err)
		}
	}
	return tx.Commit()
}

// Query runs stmt and collects the result set into a table. Column names
// come from the result set; values keep their SQLite storage class.
func (v *View) Query(ctx context.Context, stmt string, args ...any) (*table.Table, error) {
	rows, err := v.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := table.New(cols...)
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(table.Row, len(cols))
		for i, x := range raw {
			r[i] = fromSQL(x)
		}
		if err := out.Append(r); err != nil {
			return nil, err
		}
	}
	return out, rows.Err()
}

// Close releases the database.
func (v *View) Close() error { return v.db.Close() }

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// affinity picks the narrowest declared type that holds every non-null
// value of column c.
func affinity(t *table.Table, c int) string {
	kind := table.Null
	for _, r := range t.Rows {
		switch k := r[c].Kind(); {
		case k == table.Null:
		case k == table.Text:
			return "TEXT"
		case k > kind:
			kind = k
		}
	}
	switch kind {
	case table.Int:
		return "INTEGER"
	case table.Float:
		return "REAL"
	}
	return ""
}

func fromSQL(x any) table.Value {
	switch v := x.(type) {
	case nil:
		return table.Value{}
	case int64:
		return table.IntValue(v)
	case float64:
		return table.FloatValue(v)
	case string:
		return table.TextValue(v)
	case []byte:
		return table.TextValue(string(v))
	case bool:
		if v {
			return table.IntValue(1)
		}
		return table.IntValue(0)
	}
	return table.TextValue(fmt.Sprint(x))
}
