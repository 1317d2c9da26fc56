package integration

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cellid/internal/app"
	"cellid/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	outAll = "cellID\tt.frame\tflag\txpos\typos\ta.tot\tf.tot\n" +
		"0\t0\t0\t10\t20\t300\t1000\n" +
		"0\t0\t1\t10\t20\t300\t2000\n" +
		"1\t0\t0\t30\t40\t310\t1100\n" +
		"1\t0\t1\t30\t40\t310\t2100\n"
	mapping = "flag\tfluor\n0\tBF_Position\n1\tYFP_Position\n"
)

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func experiment(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range []string{"000", "001"} {
		dir := filepath.Join(root, "pos"+p)
		write(t, filepath.Join(dir, "exp_pos"+p+".out_all"), []byte(outAll))
		write(t, filepath.Join(dir, "out_bf_fl_mapping"), []byte(mapping))
	}
	return root
}

func run(argv ...string) (code int, stdout, stderr string) {
	var out, errw bytes.Buffer
	code = app.Run(argv, &out, &errw)
	return code, out.String(), errw.String()
}

func TestMergeTSV(t *testing.T) {
	root := experiment(t)
	code, out, stderr := run("merge", root)
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	header := strings.Split(lines[0], "\t")
	assert.Equal(t, []string{"pos", "t_frame", "ucid", "cellID"}, header[:4])
	assert.Contains(t, header, "f_tot_yfp")
	assert.Contains(t, header, "f_tot_bf")
	assert.NotContains(t, header, "flag")
	assert.Contains(t, stderr, "merge complete")
}

func TestMergeJSONToFile(t *testing.T) {
	root := experiment(t)
	dst := filepath.Join(t.TempDir(), "merged.json")
	code, out, stderr := run("merge", root, "-o", "json", "--out", dst)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, out)

	raw, err := os.ReadFile(dst)
	require.NoError(t, err)
	var doc api.TableV1
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Len(t, doc.Rows, 4)
	assert.Equal(t, "ucid", doc.Columns[2])
	// pos 1, cellID 1
	assert.Contains(t, doc.Rows, []any{1.0, 0.0, 100000000001.0, 1.0, 30.0, 40.0, 310.0, 1100.0, 2100.0})
}

func TestMergeCompressedInput(t *testing.T) {
	root := t.TempDir()
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(outAll))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	write(t, filepath.Join(root, "pos7", "exp.out_all"), gz.Bytes())
	write(t, filepath.Join(root, "pos7", "out_mapping"), []byte(mapping))

	code, out, stderr := run("merge", root, "-o", "jsonl")
	require.Equal(t, 0, code, stderr)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], `{"pos":7,"t_frame":0,"ucid":700000000000,"cellID":0`), lines[0])
}

func TestQuery(t *testing.T) {
	root := experiment(t)
	code, out, stderr := run("query", root, "--sql", "SELECT pos, COUNT(*) AS n FROM cells GROUP BY pos ORDER BY pos")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "pos\tn\n0\t2\n1\t2\n", out)
}

func TestLocate(t *testing.T) {
	root := experiment(t)
	code, out, stderr := run("locate", root, "--ucid", "100000000001", "--frame", "0")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "x\ty\tradius\n30\t40\t90\n", out)

	code, out, stderr = run("locate", root, "--ucid", "42", "--frame", "0")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "x\ty\tradius\n696\t520\t520\n", out)
	assert.Contains(t, stderr, "cell lookup mismatch")
}

func TestConfigFileAndMetrics(t *testing.T) {
	root := experiment(t)
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "cellid.prom")
	cfg := filepath.Join(dir, "cellid.yaml")
	write(t, cfg, []byte("root: "+root+"\noutput: json\nmetrics_file: "+metricsFile+"\nlog:\n  quiet: true\n"))

	code, out, stderr := run("--config", cfg, "merge")
	require.Equal(t, 0, code, stderr)
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Empty(t, stderr)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "cellid_merge_files_total 2")
	assert.Contains(t, string(prom), "cellid_merge_rows_total 4")

	// flags win over the file
	code, out, _ = run("--config", cfg, "merge", "-o", "tsv")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "pos\t"))
}

func TestVersion(t *testing.T) {
	code, out, _ := run("version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "cellid version "))
}

func TestHelp(t *testing.T) {
	code, out, _ := run("--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "merge")
	assert.Contains(t, out, "query")
}
