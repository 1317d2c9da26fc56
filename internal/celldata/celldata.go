// Package celldata is the accessor consumed by plotting and viewing code.
// It builds the merged table on first use and keeps it for its lifetime,
// exposing a fixed set of operations instead of the whole table.
package celldata

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"cellid-core/table"
	"cellid/internal/merge"
)

// Accessor is what downstream consumers need from merged cell data.
type Accessor interface {
	Len() int
	Columns() []string
	Column(name string) ([]table.Value, error)
	Row(i int) (table.Row, error)
	All() iter.Seq2[int, table.Row]
	Get(i int, column string) table.Value
}

// Data lazily merges the tables under Options.Root.
type Data struct {
	opts  merge.Options
	build func(context.Context, merge.Options) (*table.Table, error)

	once sync.Once
	t    *table.Table
	err  error
}

var _ Accessor = (*Data)(nil)

// New checks that the root exists and returns an unbuilt accessor.
func New(o merge.Options) (*Data, error) {
	if err := merge.CheckRoot(o.Root); err != nil {
		return nil, err
	}
	return &Data{opts: o, build: merge.Tables}, nil
}

// FromTable wraps an already merged table.
func FromTable(path string, t *table.Table) *Data {
	d := &Data{opts: merge.Options{Root: path}}
	d.once.Do(func() { d.t = t })
	return d
}

// Load runs the merge once. Later calls return the cached outcome. The
// accessor methods call it implicitly and see an empty table on failure,
// so callers that care about the error call Load first.
func (d *Data) Load(ctx context.Context) error {
	d.once.Do(func() { d.t, d.err = d.build(ctx, d.opts) })
	return d.err
}

func (d *Data) table() *table.Table {
	if err := d.Load(context.Background()); err != nil {
		return table.New()
	}
	return d.t
}

// Path is the root the data was merged from.
func (d *Data) Path() string { return d.opts.Root }

// Table returns a copy of the underlying table for raw tabular work.
func (d *Data) Table() *table.Table { return d.table().Clone() }

func (d *Data) Len() int          { return d.table().Len() }
func (d *Data) Columns() []string { return d.table().Columns() }

func (d *Data) Column(name string) ([]table.Value, error) { return d.table().Column(name) }

func (d *Data) Get(i int, column string) table.Value { return d.table().Get(i, column) }

// Row returns a copy of row i.
func (d *Data) Row(i int) (table.Row, error) {
	t := d.table()
	if i < 0 || i >= t.Len() {
		return nil, fmt.Errorf("row %d out of range [0,%d)", i, t.Len())
	}
	return append(table.Row(nil), t.Rows[i]...), nil
}

// All iterates rows in order. Rows are shared; copy before keeping them.
func (d *Data) All() iter.Seq2[int, table.Row] {
	t := d.table()
	return func(yield func(int, table.Row) bool) {
		for i, r := range t.Rows {
			if !yield(i, r) {
				return
			}
		}
	}
}

// SetColumn assigns a whole column, adding it when new.
func (d *Data) SetColumn(name string, vals []table.Value) error {
	return d.table().SetColumn(name, vals)
}

// SetRow replaces row i; r must have one value per column.
func (d *Data) SetRow(i int, r table.Row) error {
	t := d.table()
	if i < 0 || i >= t.Len() {
		return fmt.Errorf("row %d out of range [0,%d)", i, t.Len())
	}
	if len(r) != len(t.Columns()) {
		return fmt.Errorf("row has %d values, table has %d columns", len(r), len(t.Columns()))
	}
	t.Rows[i] = append(table.Row(nil), r...)
	return nil
}

// Where returns the indices of rows for which match is true.
func (d *Data) Where(match func(i int, r table.Row) bool) []int {
	var out []int
	for i, r := range d.All() {
		if match(i, r) {
			out = append(out, i)
		}
	}
	return out
}
