// internal/cellview/cellview.go
package cellview

import (
	"context"
	"errors"
	"fmt"

	"cellid-core/table"
	"cellid/internal/celldata"
	"cellid/internal/logging"

	"go.uber.org/zap"
)

// Frame geometry of the microscope images, in pixels.
const (
	FrameWidth  = 1392
	FrameHeight = 1040
	CellRadius  = 90
)

// ErrCellLookupMismatch is returned alongside the full-frame region when no
// single row matches the requested cell. Callers may treat it as a warning.
var ErrCellLookupMismatch = errors.New("ucid and t_frame do not match a single cell")

// Region is a square window centred on (X, Y).
type Region struct {
	X, Y   int
	Radius int
}

// FullFrame covers the whole image.
func FullFrame() Region {
	return Region{X: FrameWidth / 2, Y: FrameHeight / 2, Radius: FrameHeight / 2}
}

// Bounds clips the window to a width x height image and returns the
// half-open pixel ranges [x0,x1) and [y0,y1).
func (r Region) Bounds(width, height int) (x0, y0, x1, y1 int) {
	clip := func(v, hi int) int { return max(0, min(v, hi)) }
	return clip(r.X-r.Radius, width), clip(r.Y-r.Radius, height),
		clip(r.X+r.Radius, width), clip(r.Y+r.Radius, height)
}

// Fetcher loads the pixels of one channel image cropped to a region.
type Fetcher interface {
	FetchRegion(ctx context.Context, channel string, ucid, frame int64, r Region) ([]byte, error)
}

// Locate finds the window around cell ucid in frame. Exactly one row must
// match; otherwise the full frame is returned with ErrCellLookupMismatch.
func Locate(data celldata.Accessor, ucid, frame int64, log *zap.Logger) (Region, error) {
	log = logging.OrNop(log)
	var hits []table.Row
	cols := data.Columns()
	ui, fi, xi, yi := indexOf(cols, "ucid"), indexOf(cols, "t_frame"), indexOf(cols, "xpos"), indexOf(cols, "ypos")
	if ui < 0 || xi < 0 || yi < 0 {
		log.Warn("cell lookup mismatch, using full frame",
			zap.Int64("ucid", ucid), zap.Int64("t_frame", frame), zap.Strings("columns", cols))
		return FullFrame(), fmt.Errorf("%w: %w", ErrCellLookupMismatch, table.ErrMissingColumn)
	}
	for _, r := range data.All() {
		if id, ok := r[ui].Int(); !ok || id != ucid {
			continue
		}
		if fi >= 0 {
			if f, ok := r[fi].Int(); !ok || f != frame {
				continue
			}
		}
		hits = append(hits, r)
	}
	if len(hits) == 1 {
		x, okx := hits[0][xi].Float()
		y, oky := hits[0][yi].Float()
		if okx && oky {
			return Region{X: int(x), Y: int(y), Radius: CellRadius}, nil
		}
	}
	log.Warn("cell lookup mismatch, using full frame",
		zap.Int64("ucid", ucid), zap.Int64("t_frame", frame), zap.Int("matches", len(hits)))
	return FullFrame(), fmt.Errorf("%w (ucid %d, t_frame %d, %d matches)", ErrCellLookupMismatch, ucid, frame, len(hits))
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
