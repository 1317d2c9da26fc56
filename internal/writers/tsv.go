// internal/writers/tsv.go
package writers

import (
	"bufio"
	"io"
	"strings"

	"cellid-core/table"
)

func init() { Register(FormatTSV, WriteTSV) }

// WriteTSV writes a header line and one tab-separated line per row.
// Nulls are written as empty fields.
func WriteTSV(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(t.Columns(), "\t") + "\n"); err != nil {
		return err
	}
	for _, r := range t.Rows {
		for i, v := range r {
			if i > 0 {
				if err := bw.WriteByte('\t'); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(v.String()); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
