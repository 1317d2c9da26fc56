// Package reshape turns one CellID table with a row per (cell, frame, flag)
// into a row per (cell, frame), spreading the fluorescence columns ("f_"
// prefix) into one column per channel.
//
// Morphological values are taken from the flag 0 rows only; CellID repeats
// them on every flag. Keys present only in channel rows survive the outer
// join with null morphology.
package reshape

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"cellid-core/channel"
	"cellid-core/table"
	"cellid-core/ucid"
)

// FluorPrefix marks fluorescence columns.
const FluorPrefix = "f_"

// Column names used as join keys and leading output columns.
const (
	FlagColumn  = "flag"
	FrameColumn = "t_frame"
)

var ErrDuplicateEntry = errors.New("duplicate (ucid, t_frame, flag) entry")

type key struct {
	ucid  int64
	frame int64
}

func (k key) less(o key) bool {
	if k.ucid != o.ucid {
		return k.ucid < o.ucid
	}
	return k.frame < o.frame
}

// ByChannel reshapes t using m to name channels. t must carry flag, ucid,
// pos and cellID columns; t_frame is optional.
func ByChannel(t *table.Table, m *channel.Mapping) (*table.Table, error) {
	flagIdx, err := t.MustIndex(FlagColumn)
	if err != nil {
		return nil, err
	}
	ucidIdx, err := t.MustIndex(ucid.Column)
	if err != nil {
		return nil, err
	}
	for _, c := range []string{ucid.PosColumn, ucid.CellID} {
		if _, err := t.MustIndex(c); err != nil {
			return nil, err
		}
	}
	frameIdx := t.Index(FrameColumn)
	hasFrame := frameIdx >= 0

	// 1. partition columns
	var fluor, morph []int
	for i, c := range t.Columns() {
		switch {
		case strings.HasPrefix(c, FluorPrefix):
			fluor = append(fluor, i)
		case i == flagIdx:
		default:
			morph = append(morph, i)
		}
	}

	keys := make([]key, len(t.Rows))
	flags := make([]int64, len(t.Rows))
	flagSet := map[int64]struct{}{}
	for i, r := range t.Rows {
		id, ok := r[ucidIdx].Int()
		if !ok {
			return nil, fmt.Errorf("row %d: ucid %q is not an integer", i+1, r[ucidIdx].String())
		}
		k := key{ucid: id}
		if hasFrame {
			if k.frame, ok = r[frameIdx].Int(); !ok {
				return nil, fmt.Errorf("row %d: %s %q is not an integer", i+1, FrameColumn, r[frameIdx].String())
			}
		}
		f, ok := r[flagIdx].Int()
		if !ok {
			return nil, fmt.Errorf("row %d: flag %q is not an integer", i+1, r[flagIdx].String())
		}
		keys[i], flags[i] = k, f
		flagSet[f] = struct{}{}
	}
	usedFlags := make([]int64, 0, len(flagSet))
	for f := range flagSet {
		usedFlags = append(usedFlags, f)
	}
	sort.Slice(usedFlags, func(i, j int) bool { return usedFlags[i] < usedFlags[j] })
	flagPos := make(map[int64]int, len(usedFlags))
	for i, f := range usedFlags {
		flagPos[f] = i
	}

	// 2+3. pivot fluorescence columns and name them by channel
	names, err := m.Channels(usedFlags)
	if err != nil {
		return nil, err
	}
	width := len(fluor) * len(usedFlags)
	pivot := make(map[key]table.Row)
	seen := make(map[key]map[int64]struct{})
	// 4. flag 0 morphology
	morphRows := make(map[key]table.Row)

	for i, r := range t.Rows {
		k, f := keys[i], flags[i]
		if seen[k] == nil {
			seen[k] = map[int64]struct{}{}
		}
		if _, dup := seen[k][f]; dup {
			return nil, fmt.Errorf("%w: ucid=%d t_frame=%d flag=%d", ErrDuplicateEntry, k.ucid, k.frame, f)
		}
		seen[k][f] = struct{}{}

		if width > 0 {
			pr, ok := pivot[k]
			if !ok {
				pr = make(table.Row, width)
				pivot[k] = pr
			}
			for j, c := range fluor {
				pr[j*len(usedFlags)+flagPos[f]] = r[c]
			}
		}
		if f == 0 {
			mr := make(table.Row, len(morph))
			for j, c := range morph {
				mr[j] = r[c]
			}
			morphRows[k] = mr
		}
	}

	// 5. outer join on the union of keys, sorted
	all := make([]key, 0, len(seen))
	for k := range seen {
		if _, inPivot := pivot[k]; inPivot || morphRows[k] != nil {
			all = append(all, k)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].less(all[j]) })

	// 6. column order: pos, t_frame, ucid, cellID, other morphology, channels
	cols := t.Columns()
	front := []string{ucid.PosColumn, FrameColumn, ucid.Column, ucid.CellID}
	if !hasFrame {
		front = []string{ucid.PosColumn, ucid.Column, ucid.CellID}
	}
	out := table.New(front...)
	src := make([]int, 0, len(morph)) // output index for each morph column
	for _, c := range morph {
		src = append(src, out.AddColumn(cols[c]))
	}
	chanStart := len(out.Columns())
	for _, c := range fluor {
		for _, f := range usedFlags {
			name := cols[c] + "_" + names[f]
			if out.Has(name) {
				return nil, fmt.Errorf("channel column %q collides with an existing column", name)
			}
			out.AddColumn(name)
		}
	}

	ncol := len(out.Columns())
	posOut, cellOut, idOut := out.Index(ucid.PosColumn), out.Index(ucid.CellID), out.Index(ucid.Column)
	for _, k := range all {
		row := make(table.Row, ncol)
		if mr, ok := morphRows[k]; ok {
			for j, v := range mr {
				row[src[j]] = v
			}
		} else {
			pos, cell := ucid.Split(k.ucid)
			row[posOut] = table.IntValue(pos)
			row[cellOut] = table.IntValue(cell)
		}
		row[idOut] = table.IntValue(k.ucid)
		if hasFrame {
			row[out.Index(FrameColumn)] = table.IntValue(k.frame)
		}
		if pr, ok := pivot[k]; ok {
			copy(row[chanStart:], pr)
		}
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}
