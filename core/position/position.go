// Package position decodes the imaging position encoded in a CellID file path.
//
// Accepted forms, after a case-insensitive "p…" marker and optional '-'/'_':
//
//	pos12          -> 12
//	pos1.5e3       -> 1500  (scientific, truncated)
//	pos2.5e3+-100  -> 2400  (offset-sum of truncated terms)
//	Pos_3+2        -> 5
//
// The first match in the slash-normalized path wins.
package position

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
)

var (
	ErrNotEncoded = errors.New("position not encoded")
	ErrRange      = errors.New("position out of range")
)

// group 1: scientific literal, group 2: integer literal, group 3: offset literal.
var positionRE = regexp.MustCompile(
	`[pP][a-zA-Z]*[-_]*(?:(-?[\d.]+(?:[eE][-+]?\d+))|(\d+))(?:\+(-?[\d.]+(?:[eE][-+]?\d+)?))?`,
)

// FromPath extracts the position from path.
func FromPath(path string) (int64, error) {
	m := positionRE.FindStringSubmatch(filepath.ToSlash(path))
	if m == nil {
		return 0, fmt.Errorf("%s: %w", path, ErrNotEncoded)
	}
	lit := m[1]
	if lit == "" {
		lit = m[2]
	}
	pos, err := truncate(lit)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if m[3] != "" {
		off, err := truncate(m[3])
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		pos += off
	}
	if pos < 0 {
		return 0, fmt.Errorf("%s: %w: %d", path, ErrRange, pos)
	}
	return pos, nil
}

// truncate converts a numeric literal to an integer through float64, like
// int(float(s)). Values outside ±2^62 are rejected so the offset sum can't wrap.
func truncate(lit string) (int64, error) {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: literal %q", ErrNotEncoded, lit)
	}
	f = math.Trunc(f)
	if math.IsNaN(f) || math.Abs(f) >= 1<<62 {
		return 0, fmt.Errorf("%w: %q", ErrRange, lit)
	}
	return int64(f), nil
}
