package reshape

import (
	"errors"
	"strings"
	"testing"

	"cellid-core/channel"
	"cellid-core/table"
	"cellid-core/ucid"
)

const raw = `cellID	t.frame	flag	xpos	ypos	a.tot	f.tot	f.nuc
0	0	0	10	20	300	1000	50
0	0	1	10	20	300	2000	60
1	0	0	30	40	310	1100	51
1	0	1	30	40	310	2100	61
0	1	0	11	21	305	1010	52
0	1	1	11	21	305	2010	62
9	0	1	99	99	999	2900	69
`

func load(t *testing.T, src string, pos int64) *table.Table {
	t.Helper()
	tb, err := table.Read(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if err := ucid.Attach(tb, pos); err != nil {
		t.Fatal(err)
	}
	return tb
}

func mapping(t *testing.T, entries ...channel.Entry) *channel.Mapping {
	t.Helper()
	m, err := channel.New("mapping", entries...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

var bfYfp = []channel.Entry{{Flag: 0, Fluor: "BF_Position1"}, {Flag: 1, Fluor: "YFP_Position1"}}

func TestByChannelColumns(t *testing.T) {
	out, err := ByChannel(load(t, raw, 1), mapping(t, bfYfp...))
	if err != nil {
		t.Fatalf("ByChannel: %v", err)
	}
	want := "pos,t_frame,ucid,cellID,xpos,ypos,a_tot,f_tot_bf,f_tot_yfp,f_nuc_bf,f_nuc_yfp"
	if got := strings.Join(out.Columns(), ","); got != want {
		t.Fatalf("columns\n got %s\nwant %s", got, want)
	}
	if out.Has("flag") {
		t.Fatalf("flag column must be dropped")
	}
	// distinct (ucid, t_frame) keys: (0,0) (0,1) (1,0) (9,0)
	if out.Len() != 4 {
		t.Fatalf("rows = %d, want 4", out.Len())
	}
}

func TestByChannelValuesAndOrder(t *testing.T) {
	out, err := ByChannel(load(t, raw, 1), mapping(t, bfYfp...))
	if err != nil {
		t.Fatal(err)
	}
	wantKeys := [][2]int64{{0, 0}, {0, 1}, {1, 0}, {9, 0}}
	for i, k := range wantKeys {
		id, _ := out.Get(i, "ucid").Int()
		fr, _ := out.Get(i, "t_frame").Int()
		if id != 1*ucid.Scale+k[0] || fr != k[1] {
			t.Fatalf("row %d key = (%d,%d), want cell %d frame %d", i, id, fr, k[0], k[1])
		}
	}
	if got := out.Get(0, "f_tot_bf").String(); got != "1000" {
		t.Errorf("f_tot_bf[0] = %s", got)
	}
	if got := out.Get(0, "f_tot_yfp").String(); got != "2000" {
		t.Errorf("f_tot_yfp[0] = %s", got)
	}
	if got := out.Get(1, "f_nuc_yfp").String(); got != "62" {
		t.Errorf("f_nuc_yfp[1] = %s", got)
	}

	// cell 9 only has a flag 1 row: no morphology, channel values kept
	last := out.Len() - 1
	if !out.Get(last, "xpos").IsNull() || !out.Get(last, "f_tot_bf").IsNull() {
		t.Errorf("channel-only row should have null morphology: %+v", out.Rows[last])
	}
	if out.Get(last, "f_tot_yfp").String() != "2900" {
		t.Errorf("channel-only row lost its value")
	}
	if out.Get(last, "pos").String() != "1" || out.Get(last, "cellID").String() != "9" {
		t.Errorf("pos/cellID not derived from ucid: %+v", out.Rows[last])
	}
}

func TestByChannelMorphologyRoundTrip(t *testing.T) {
	in := load(t, raw, 2)
	out, err := ByChannel(in, mapping(t, bfYfp...))
	if err != nil {
		t.Fatal(err)
	}
	byKey := map[[2]string]int{}
	for i := range out.Rows {
		byKey[[2]string{out.Get(i, "ucid").String(), out.Get(i, "t_frame").String()}] = i
	}
	for i := range in.Rows {
		if in.Get(i, "flag").String() != "0" {
			continue
		}
		j, ok := byKey[[2]string{in.Get(i, "ucid").String(), in.Get(i, "t_frame").String()}]
		if !ok {
			t.Fatalf("flag-0 row %d missing from output", i)
		}
		for _, c := range []string{"pos", "cellID", "xpos", "ypos", "a_tot"} {
			if !in.Get(i, c).Equal(out.Get(j, c)) {
				t.Errorf("row %d column %s: %v != %v", i, c, in.Get(i, c), out.Get(j, c))
			}
		}
	}
}

func TestByChannelWithoutFrame(t *testing.T) {
	src := "cellID\tflag\tf.tot\n0\t0\t1\n0\t1\t2\n"
	out, err := ByChannel(load(t, src, 0), mapping(t, bfYfp...))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(out.Columns(), ","); got != "pos,ucid,cellID,f_tot_bf,f_tot_yfp" {
		t.Fatalf("columns = %s", got)
	}
	if out.Len() != 1 {
		t.Fatalf("rows = %d", out.Len())
	}
}

func TestByChannelMissingFlag(t *testing.T) {
	_, err := ByChannel(load(t, raw, 1), mapping(t, channel.Entry{Flag: 0, Fluor: "BF_Position1"}))
	if !errors.Is(err, channel.ErrNotEncoded) {
		t.Fatalf("want channel.ErrNotEncoded, got %v", err)
	}
}

func TestByChannelMissingFlagWithoutFluorColumns(t *testing.T) {
	src := "cellID\tt.frame\tflag\txpos\n0\t0\t0\t1\n0\t0\t1\t1\n"
	_, err := ByChannel(load(t, src, 0), mapping(t, channel.Entry{Flag: 0, Fluor: "BF_Position1"}))
	if !errors.Is(err, channel.ErrNotEncoded) {
		t.Fatalf("want channel.ErrNotEncoded, got %v", err)
	}
}

func TestByChannelDuplicateEntry(t *testing.T) {
	src := "cellID\tt.frame\tflag\tf.tot\n0\t0\t1\t1\n0\t0\t1\t2\n"
	_, err := ByChannel(load(t, src, 0), mapping(t, bfYfp...))
	if !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("want ErrDuplicateEntry, got %v", err)
	}
}

func TestByChannelRequiresUcid(t *testing.T) {
	tb, _ := table.Read(strings.NewReader(raw))
	if _, err := ByChannel(tb, mapping(t, bfYfp...)); !errors.Is(err, table.ErrMissingColumn) {
		t.Fatalf("want ErrMissingColumn, got %v", err)
	}
}
