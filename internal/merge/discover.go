// internal/merge/discover.go
package merge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cellid-core/position"
)

// Pair joins a data table with the metadata (mapping) table describing its flags.
type Pair struct {
	Data     string
	Metadata string
}

// Discover walks root once and returns the files whose base name matches
// dataPattern and metaPattern, in lexical walk order.
func Discover(root, dataPattern, metaPattern string) (data, meta []string, err error) {
	if _, err := filepath.Match(dataPattern, ""); err != nil {
		return nil, nil, fmt.Errorf("data pattern %q: %w", dataPattern, err)
	}
	if _, err := filepath.Match(metaPattern, ""); err != nil {
		return nil, nil, fmt.Errorf("metadata pattern %q: %w", metaPattern, err)
	}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if ok, _ := filepath.Match(dataPattern, name); ok {
			data = append(data, path)
		}
		if ok, _ := filepath.Match(metaPattern, name); ok {
			meta = append(meta, path)
		}
		return nil
	})
	return data, meta, err
}

// CheckRoot fails with ErrPathNotFound when root does not exist.
func CheckRoot(root string) error {
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrPathNotFound, root)
		}
		return err
	}
	return nil
}

// positionOf decodes the position from the path below root, falling back to
// the full path when the relative part carries no position.
func positionOf(root, path string) (int64, error) {
	if rel, err := filepath.Rel(root, path); err == nil {
		pos, err := position.FromPath(rel)
		if err == nil || !errors.Is(err, position.ErrNotEncoded) {
			return pos, err
		}
	}
	return position.FromPath(path)
}

// PairKeyed pairs every data file with the metadata file of its own
// directory, or of the nearest ancestor (up to root) that has one. When a
// directory holds several metadata files, the one encoding the data file's
// position is chosen.
func PairKeyed(root string, data, meta []string) ([]Pair, error) {
	root = filepath.Clean(root)
	byDir := make(map[string][]string)
	for _, m := range meta {
		dir := filepath.Dir(m)
		byDir[dir] = append(byDir[dir], m)
	}

	pairs := make([]Pair, 0, len(data))
	for _, d := range data {
		var cands []string
		for dir := filepath.Dir(d); ; dir = filepath.Dir(dir) {
			if cands = byDir[dir]; len(cands) > 0 {
				break
			}
			if dir == root || dir == filepath.Dir(dir) {
				break
			}
		}
		switch len(cands) {
		case 0:
			return nil, fmt.Errorf("%w for %s", ErrMetadataNotFound, d)
		case 1:
			pairs = append(pairs, Pair{Data: d, Metadata: cands[0]})
			continue
		}
		pos, err := positionOf(root, d)
		if err != nil {
			return nil, err
		}
		var match []string
		for _, c := range cands {
			if p, err := positionOf(root, c); err == nil && p == pos {
				match = append(match, c)
			}
		}
		if len(match) != 1 {
			return nil, fmt.Errorf("%w for %s: %d candidates in %s", ErrMetadataAmbiguous, d, len(cands), filepath.Dir(cands[0]))
		}
		pairs = append(pairs, Pair{Data: d, Metadata: match[0]})
	}
	return pairs, nil
}

// PairLockstep pairs the Nth data file with the Nth metadata file. Extra
// metadata files are ignored.
func PairLockstep(data, meta []string) ([]Pair, error) {
	if len(meta) < len(data) {
		return nil, fmt.Errorf("%w: %d data files, %d metadata files", ErrMetadataNotFound, len(data), len(meta))
	}
	pairs := make([]Pair, len(data))
	for i, d := range data {
		pairs[i] = Pair{Data: d, Metadata: meta[i]}
	}
	return pairs, nil
}
