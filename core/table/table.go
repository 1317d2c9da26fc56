// core/table/table.go
package table

import (
	"errors"
	"fmt"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing column")

// Row holds one value per table column, in column order.
type Row []Value

// Table is an ordered set of named columns stored row by row.
type Table struct {
	cols  []string
	index map[string]int
	Rows  []Row
}

// New returns an empty table with the given columns.
func New(cols ...string) *Table {
	t := &Table{}
	for _, c := range cols {
		t.AddColumn(c)
	}
	return t
}

func (t *Table) Columns() []string { return append([]string(nil), t.cols...) }
func (t *Table) Len() int          { return len(t.Rows) }

// Index returns the position of a column or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// MustIndex is Index with ErrMissingColumn for absent names.
func (t *Table) MustIndex(name string) (int, error) {
	i := t.Index(name)
	if i < 0 {
		return -1, fmt.Errorf("%w %q", ErrMissingColumn, name)
	}
	return i, nil
}

// AddColumn appends a column filled with nulls and returns its index.
// Adding an existing name returns the existing index.
func (t *Table) AddColumn(name string) int {
	if i := t.Index(name); i >= 0 {
		return i
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.cols = append(t.cols, name)
	t.index[name] = len(t.cols) - 1
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], Value{})
	}
	return len(t.cols) - 1
}

// Append adds a row; it must have one value per column.
func (t *Table) Append(r Row) error {
	if len(r) != len(t.cols) {
		return fmt.Errorf("row has %d values, table has %d columns", len(r), len(t.cols))
	}
	t.Rows = append(t.Rows, r)
	return nil
}

// Get returns the value at row i of the named column; null if the column is absent.
func (t *Table) Get(i int, name string) Value {
	c := t.Index(name)
	if c < 0 {
		return Value{}
	}
	return t.Rows[i][c]
}

// Column copies one column out of the table.
func (t *Table) Column(name string) ([]Value, error) {
	c, err := t.MustIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[c]
	}
	return out, nil
}

// SetColumn replaces (or creates) a column. len(vals) must equal Len().
func (t *Table) SetColumn(name string, vals []Value) error {
	if len(vals) != len(t.Rows) {
		return fmt.Errorf("column %q: %d values for %d rows", name, len(vals), len(t.Rows))
	}
	c := t.AddColumn(name)
	for i := range t.Rows {
		t.Rows[i][c] = vals[i]
	}
	return nil
}

// Select returns a new table with the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		c, err := t.MustIndex(n)
		if err != nil {
			return nil, err
		}
		idx[i] = c
	}
	out := New(names...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(Row, len(idx))
		for j, c := range idx {
			nr[j] = r[c]
		}
		out.Rows[i] = nr
	}
	return out, nil
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	out := New(t.cols...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append(Row(nil), r...)
	}
	return out
}

// Concat stacks tables by rows. Columns are the union in first-seen order;
// values absent from a source table are null. Row order follows the arguments.
func Concat(tables ...*Table) *Table {
	out := New()
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.cols {
			out.AddColumn(c)
		}
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		dst := make([]int, len(t.cols))
		for j, c := range t.cols {
			dst[j] = out.index[c]
		}
		for _, r := range t.Rows {
			nr := make(Row, len(out.cols))
			for j, v := range r {
				nr[dst[j]] = v
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	return out
}
