// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"sort"

	"cellid-core/table"
)

// Output formats.
const (
	FormatTSV   = "tsv"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatText  = "text"
)

// TableWriters maps format → handler.
var TableWriters = map[string]func(w io.Writer, t *table.Table) error{}

// Register installs a handler (last wins).
func Register(format string, fn func(io.Writer, *table.Table) error) { TableWriters[format] = fn }

// Known reports whether format has a registered writer.
func Known(format string) bool {
	_, ok := TableWriters[format]
	return ok
}

// Formats lists the registered formats, sorted.
func Formats() []string {
	out := make([]string, 0, len(TableWriters))
	for f := range TableWriters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Write dispatches to the handler registered for format.
func Write(format string, w io.Writer, t *table.Table) error {
	fn, ok := TableWriters[format]
	if !ok {
		return fmt.Errorf("unknown output format %q (no writer registered)", format)
	}
	return fn(w, t)
}
