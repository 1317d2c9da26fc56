package ucid

import (
	"errors"
	"testing"

	"cellid-core/table"
)

func TestMake(t *testing.T) {
	id, err := Make(2, 17)
	if err != nil || id != 200_000_000_017 {
		t.Fatalf("Make(2,17) = %d, %v", id, err)
	}
	if p, c := Split(id); p != 2 || c != 17 {
		t.Fatalf("Split = %d,%d", p, c)
	}
	if _, err := Make(1<<62, 0); !errors.Is(err, ErrOverflow) {
		t.Fatalf("want ErrOverflow, got %v", err)
	}
	if _, err := Make(0, Scale); !errors.Is(err, ErrOverflow) {
		t.Fatalf("cellID >= Scale must fail, got %v", err)
	}
}

func TestAttach(t *testing.T) {
	tb := table.New("cellID", "flag")
	for _, c := range []int64{0, 1, 1, 5} {
		_ = tb.Append(table.Row{table.IntValue(c), table.IntValue(0)})
	}
	if err := Attach(tb, 3); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	for i := range tb.Rows {
		cell, _ := tb.Get(i, "cellID").Int()
		id, _ := tb.Get(i, Column).Int()
		pos, _ := tb.Get(i, PosColumn).Int()
		if pos != 3 || id != 3*Scale+cell {
			t.Fatalf("row %d: pos=%d ucid=%d cell=%d", i, pos, id, cell)
		}
	}
}

func TestAttachDistinctPositionsAreInjective(t *testing.T) {
	seen := map[int64]bool{}
	for pos := int64(0); pos < 3; pos++ {
		tb := table.New("cellID")
		for c := int64(0); c < 50; c++ {
			_ = tb.Append(table.Row{table.IntValue(c)})
		}
		if err := Attach(tb, pos); err != nil {
			t.Fatal(err)
		}
		ids, _ := tb.Column(Column)
		for _, v := range ids {
			id, _ := v.Int()
			if seen[id] {
				t.Fatalf("duplicate ucid %d", id)
			}
			seen[id] = true
			if id < pos*Scale || id >= (pos+1)*Scale {
				t.Fatalf("ucid %d outside position %d range", id, pos)
			}
		}
	}
}

func TestAttachErrors(t *testing.T) {
	if err := Attach(table.New("flag"), 0); !errors.Is(err, table.ErrMissingColumn) {
		t.Fatalf("want ErrMissingColumn, got %v", err)
	}
	tb := table.New("cellID")
	_ = tb.Append(table.Row{table.TextValue("abc")})
	if err := Attach(tb, 0); err == nil {
		t.Fatalf("non-integer cellID must fail")
	}
}

func TestMakePositionCeiling(t *testing.T) {
	if MaxPos != 92_233_720 {
		t.Fatalf("MaxPos = %d", MaxPos)
	}
	if _, err := Make(MaxPos, 0); err != nil {
		t.Fatalf("Make(MaxPos, 0): %v", err)
	}
	if _, err := Make(MaxPos+1, 0); !errors.Is(err, ErrOverflow) {
		t.Fatalf("want ErrOverflow above MaxPos, got %v", err)
	}
}
