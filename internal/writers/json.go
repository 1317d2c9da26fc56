// internal/writers/json.go
package writers

import (
	"encoding/json"
	"io"
	"math"

	"cellid-core/table"
	"cellid/internal/jsonlutil"
	"cellid/pkg/api"
)

func init() {
	Register(FormatJSON, WriteJSON)
	Register(FormatJSONL, WriteJSONL)
}

// ToAPITable converts a table to the stable wire schema (v1).
func ToAPITable(t *table.Table) api.TableV1 {
	out := api.TableV1{Columns: t.Columns(), Rows: make([][]any, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = values(r)
	}
	return out
}

func values(r table.Row) []any {
	vals := make([]any, len(r))
	for j, v := range r {
		// encoding/json rejects NaN and ±Inf
		if f, ok := v.Float(); ok && v.Kind() == table.Float && (math.IsNaN(f) || math.IsInf(f, 0)) {
			continue
		}
		vals[j] = v.Any()
	}
	return vals
}

// WriteJSON writes the whole table as one indented JSON document.
func WriteJSON(w io.Writer, t *table.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToAPITable(t))
}

// WriteJSONL writes one JSON object per row.
func WriteJSONL(w io.Writer, t *table.Table) error {
	cols := t.Columns()
	return jsonlutil.Write(w, t.Rows, func(enc *json.Encoder, r table.Row) error {
		return enc.Encode(api.RowV1{Columns: cols, Values: values(r)})
	}, IsBrokenPipe)
}
