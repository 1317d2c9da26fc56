// pkg/api/table_v1.go
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TableV1 is the stable JSON schema for a merged table.
// Values are null, integers, floats or strings, one per column.
type TableV1 struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// RowV1 is one JSONL line: an object keyed by column, in column order.
type RowV1 struct {
	Columns []string
	Values  []any
}

// MarshalJSON keeps the column order, which map-based encoding would lose.
func (r RowV1) MarshalJSON() ([]byte, error) {
	if len(r.Columns) != len(r.Values) {
		return nil, fmt.Errorf("row has %d values for %d columns", len(r.Values), len(r.Columns))
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
