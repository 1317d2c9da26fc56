// core/table/value.go
package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the dynamic type held by a Value.
type Kind uint8

const (
	Null Kind = iota
	Int
	Float
	Text
)

// Value is a single table cell. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func IntValue(v int64) Value     { return Value{kind: Int, i: v} }
func FloatValue(v float64) Value { return Value{kind: Float, f: v} }
func TextValue(v string) Value   { return Value{kind: Text, s: v} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == Null }

// Int returns the value as an integer. Floats are accepted only when integral.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case Int:
		return v.i, true
	case Float:
		if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) && math.Abs(v.f) < 1<<63 {
			return int64(v.f), true
		}
	}
	return 0, false
}

// Float returns numeric values as float64.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Int:
		return float64(v.i), true
	case Float:
		return v.f, true
	}
	return 0, false
}

// String renders the value the way the TSV writer emits it; null is "".
func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Text:
		return v.s
	}
	return ""
}

// Any returns nil, int64, float64 or string.
func (v Value) Any() any {
	switch v.kind {
	case Int:
		return v.i
	case Float:
		return v.f
	case Text:
		return v.s
	}
	return nil
}

// Equal compares kind and payload. NaN floats compare equal to each other.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Int:
		return v.i == o.i
	case Float:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case Text:
		return v.s == o.s
	}
	return true
}

// Parse converts a raw field into a Value.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	switch s {
	case "", "NA", "NaN", "nan", "NULL":
		return Value{}
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FloatValue(f)
	}
	return TextValue(s)
}
