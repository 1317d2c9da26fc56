// core/table/reader.go
package table

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// NormalizeHeader trims a header token and replaces "." with "_"
// (CellID writes headers such as " t.frame ").
func NormalizeHeader(h string) string {
	return strings.ReplaceAll(strings.TrimSpace(h), ".", "_")
}

// ReadFile reads a delimited text table with a header row.
func ReadFile(path string) (*Table, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	t, err := Read(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read parses a table from r. The header decides the delimiter: tab when it
// contains one, otherwise runs of whitespace. Blank lines are skipped.
func Read(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		t     *Table
		split func(string) []string
		ln    int
	)
	for sc.Scan() {
		ln++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if t == nil {
			if strings.Contains(line, "\t") {
				split = func(s string) []string { return strings.Split(s, "\t") }
			} else {
				split = strings.Fields
			}
			t = New()
			for _, h := range split(line) {
				name := NormalizeHeader(h)
				if t.Has(name) {
					return nil, fmt.Errorf("line %d: duplicate column %q", ln, name)
				}
				t.AddColumn(name)
			}
			continue
		}
		f := split(line)
		if len(f) != len(t.cols) {
			return nil, fmt.Errorf("line %d: bad field count %d (want %d)", ln, len(f), len(t.cols))
		}
		row := make(Row, len(f))
		for i, s := range f {
			row[i] = Parse(s)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("empty table: no header row")
	}
	return t, nil
}
