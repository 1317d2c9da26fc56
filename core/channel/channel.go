// core/channel/channel.go
package channel

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"cellid-core/table"
)

// Metadata table columns.
const (
	FlagColumn  = "flag"
	FluorColumn = "fluor"
)

var (
	ErrNotEncoded    = errors.New("channel not encoded")
	ErrDuplicateFlag = errors.New("flag mapped to conflicting channels")
	ErrDuplicateName = errors.New("channel name decoded for more than one flag")
)

// channelRE finds the short token in front of a Position suffix,
// e.g. "YFP_Position1" -> "YFP", "BF_Position2" -> "BF".
var (
	channelRE = regexp.MustCompile(`(\w[fF]\w?)(\D[pP]\D*)`)
	leadingRE = regexp.MustCompile(`^[A-Za-z0-9]+`)
)

// Entry is one (flag, fluor) line of a mapping table.
type Entry struct {
	Flag  int64
	Fluor string
}

// Mapping decodes flags through the entries of one metadata table.
type Mapping struct {
	Source  string
	entries map[int64]string
	order   []int64
}

// FromTable builds a Mapping from a table with flag and fluor columns.
// source names the table in error messages.
func FromTable(t *table.Table, source string) (*Mapping, error) {
	fi, err := t.MustIndex(FlagColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	di, err := t.MustIndex(FluorColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	entries := make([]Entry, 0, t.Len())
	for i, r := range t.Rows {
		flag, ok := r[fi].Int()
		if !ok {
			return nil, fmt.Errorf("%s: row %d: flag %q is not an integer", source, i+1, r[fi].String())
		}
		entries = append(entries, Entry{Flag: flag, Fluor: r[di].String()})
	}
	return New(source, entries...)
}

// New builds a Mapping from entries. Time-lapse mappings list a flag once
// per frame; the first descriptor of a flag is kept, and later ones must
// not decode to a different channel.
func New(source string, entries ...Entry) (*Mapping, error) {
	m := &Mapping{Source: source, entries: make(map[int64]string, len(entries))}
	for _, e := range entries {
		first, dup := m.entries[e.Flag]
		if !dup {
			m.entries[e.Flag] = e.Fluor
			m.order = append(m.order, e.Flag)
			continue
		}
		a, errA := Name(first)
		b, errB := Name(e.Fluor)
		if errA == nil && errB == nil && a != b {
			return nil, fmt.Errorf("%s: %w: %d maps to both %q and %q", source, ErrDuplicateFlag, e.Flag, a, b)
		}
	}
	return m, nil
}

// Flags returns the mapped flags in table order.
func (m *Mapping) Flags() []int64 { return append([]int64(nil), m.order...) }

// Decode returns the lowercase channel name for flag.
func (m *Mapping) Decode(flag int64) (string, error) {
	desc, ok := m.entries[flag]
	if !ok {
		return "", fmt.Errorf("%w: flag %d not found in mapping %s", ErrNotEncoded, flag, m.Source)
	}
	if strings.TrimSpace(desc) == "" {
		return "", fmt.Errorf("%w: flag %d has an empty descriptor in mapping %s", ErrNotEncoded, flag, m.Source)
	}
	return Name(desc)
}

// Channels decodes every flag once. Two flags may not share a channel name.
func (m *Mapping) Channels(flags []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(flags))
	owner := make(map[string]int64, len(flags))
	sorted := append([]int64(nil), flags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, f := range sorted {
		if _, done := out[f]; done {
			continue
		}
		name, err := m.Decode(f)
		if err != nil {
			return nil, err
		}
		if prev, clash := owner[name]; clash {
			return nil, fmt.Errorf("%w: %q for flags %d and %d in %s", ErrDuplicateName, name, prev, f, m.Source)
		}
		owner[name] = f
		out[f] = name
	}
	return out, nil
}

// Name extracts the channel token from a descriptor. Descriptors without a
// "<x>fp_Position" style token (e.g. "cellID") fall back to their leading
// alphanumeric run.
func Name(desc string) (string, error) {
	if m := channelRE.FindStringSubmatch(desc); m != nil {
		return strings.ToLower(m[1]), nil
	}
	if tok := leadingRE.FindString(strings.TrimSpace(desc)); tok != "" {
		return strings.ToLower(tok), nil
	}
	return "", fmt.Errorf("%w: no channel token in %q", ErrNotEncoded, desc)
}
