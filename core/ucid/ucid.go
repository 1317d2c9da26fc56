// core/ucid/ucid.go
package ucid

import (
	"errors"
	"fmt"
	"math"

	"cellid-core/table"
)

// Scale separates positions inside a ucid: ucid = pos*Scale + cellID.
const Scale int64 = 100_000_000_000

// Column names written by Attach.
const (
	Column    = "ucid"
	PosColumn = "pos"
	CellID    = "cellID"
)

var ErrOverflow = errors.New("ucid overflows int64")

// MaxPos is the largest position whose ucids fit in an int64
// (math.MaxInt64/Scale, about 9.2e7).
const MaxPos = math.MaxInt64 / Scale

// Make combines a position and a local cell id. Positions above MaxPos
// fail with ErrOverflow.
func Make(pos, cellID int64) (int64, error) {
	if pos < 0 || cellID < 0 || cellID >= Scale {
		return 0, fmt.Errorf("%w: pos=%d cellID=%d", ErrOverflow, pos, cellID)
	}
	if pos > (math.MaxInt64-cellID)/Scale {
		return 0, fmt.Errorf("%w: pos=%d cellID=%d", ErrOverflow, pos, cellID)
	}
	return pos*Scale + cellID, nil
}

// Split is the inverse of Make.
func Split(id int64) (pos, cellID int64) {
	return id / Scale, id % Scale
}

// Attach adds the ucid column and a constant pos column to t in place.
func Attach(t *table.Table, pos int64) error {
	ci, err := t.MustIndex(CellID)
	if err != nil {
		return err
	}
	ids := make([]table.Value, t.Len())
	poss := make([]table.Value, t.Len())
	for i, r := range t.Rows {
		cell, ok := r[ci].Int()
		if !ok {
			return fmt.Errorf("row %d: %s %q is not an integer", i+1, CellID, r[ci].String())
		}
		id, err := Make(pos, cell)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		ids[i] = table.IntValue(id)
		poss[i] = table.IntValue(pos)
	}
	if err := t.SetColumn(Column, ids); err != nil {
		return err
	}
	return t.SetColumn(PosColumn, poss)
}
