// internal/writers/text.go
package writers

import (
	"io"
	"strings"
	"text/tabwriter"

	"cellid-core/table"
)

func init() { Register(FormatText, WriteText) }

// WriteText aligns columns for reading in a terminal. Nulls print as NA.
func WriteText(w io.Writer, t *table.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if _, err := io.WriteString(tw, strings.Join(t.Columns(), "\t")+"\t\n"); err != nil {
		return err
	}
	cells := make([]string, 0, len(t.Columns()))
	for _, r := range t.Rows {
		cells = cells[:0]
		for _, v := range r {
			if v.IsNull() {
				cells = append(cells, "NA")
				continue
			}
			cells = append(cells, v.String())
		}
		if _, err := io.WriteString(tw, strings.Join(cells, "\t")+"\t\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}
