package cellview

import (
	"testing"

	"cellid-core/table"
	"cellid/internal/celldata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func cells(t *testing.T) *celldata.Data {
	t.Helper()
	tb := table.New("pos", "t_frame", "ucid", "cellID", "xpos", "ypos")
	rows := []table.Row{
		{table.IntValue(1), table.IntValue(0), table.IntValue(100000000000), table.IntValue(0), table.FloatValue(200.4), table.FloatValue(300.9)},
		{table.IntValue(1), table.IntValue(1), table.IntValue(100000000000), table.IntValue(0), table.FloatValue(205), table.FloatValue(310)},
		{table.IntValue(1), table.IntValue(0), table.IntValue(100000000001), table.IntValue(1), table.FloatValue(50), table.FloatValue(60)},
	}
	for _, r := range rows {
		require.NoError(t, tb.Append(r))
	}
	return celldata.FromTable("mem", tb)
}

func TestLocateFindsCell(t *testing.T) {
	r, err := Locate(cells(t), 100000000000, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, Region{X: 205, Y: 310, Radius: 90}, r)

	r, err = Locate(cells(t), 100000000000, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, Region{X: 200, Y: 300, Radius: 90}, r)
}

func TestLocateMismatchFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r, err := Locate(cells(t), 100000000001, 7, zap.New(core))
	assert.ErrorIs(t, err, ErrCellLookupMismatch)
	assert.Equal(t, Region{X: 696, Y: 520, Radius: 520}, r)
	assert.Equal(t, 1, logs.FilterMessage("cell lookup mismatch, using full frame").Len())
}

func TestLocateMissingColumns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := celldata.FromTable("mem", table.New("ucid"))
	r, err := Locate(d, 1, 0, zap.New(core))
	assert.ErrorIs(t, err, ErrCellLookupMismatch)
	assert.ErrorIs(t, err, table.ErrMissingColumn)
	assert.Equal(t, FullFrame(), r)
	assert.Equal(t, 1, logs.FilterMessage("cell lookup mismatch, using full frame").Len())
}

func TestBoundsClip(t *testing.T) {
	x0, y0, x1, y1 := Region{X: 50, Y: 1000, Radius: 90}.Bounds(FrameWidth, FrameHeight)
	assert.Equal(t, []int{0, 910, 140, 1040}, []int{x0, y0, x1, y1})

	x0, y0, x1, y1 = FullFrame().Bounds(FrameWidth, FrameHeight)
	assert.Equal(t, []int{176, 0, 1216, 1040}, []int{x0, y0, x1, y1})
}
