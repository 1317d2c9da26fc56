// internal/merge/merge.go
package merge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"cellid-core/channel"
	"cellid-core/reshape"
	"cellid-core/table"
	"cellid-core/ucid"
	"cellid/internal/logging"
	"cellid/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default file name patterns, matched against base names.
const (
	DefaultDataPattern     = "*out_all"
	DefaultMetadataPattern = "*mapping"
)

// Pairing selects how data files find their metadata file.
type Pairing string

const (
	PairingKeyed    Pairing = "keyed"
	PairingLockstep Pairing = "lockstep"
)

var (
	ErrPathNotFound      = errors.New("path not found")
	ErrNoDataFiles       = errors.New("no data files found")
	ErrMetadataNotFound  = errors.New("no metadata file")
	ErrMetadataAmbiguous = errors.New("ambiguous metadata file")
)

// Options configures one merge.
type Options struct {
	Root            string
	DataPattern     string
	MetadataPattern string
	Pairing         Pairing

	Logger  *zap.Logger
	Metrics *metrics.Merge
}

func (o *Options) defaults() {
	if o.DataPattern == "" {
		o.DataPattern = DefaultDataPattern
	}
	if o.MetadataPattern == "" {
		o.MetadataPattern = DefaultMetadataPattern
	}
	if o.Pairing == "" {
		o.Pairing = PairingKeyed
	}
	o.Logger = logging.OrNop(o.Logger)
}

// BuildMergedTable merges every data table under root with default options.
func BuildMergedTable(root, dataPattern, metadataPattern string) (*table.Table, error) {
	return Tables(context.Background(), Options{
		Root:            root,
		DataPattern:     dataPattern,
		MetadataPattern: metadataPattern,
	})
}

// Tables discovers the data/metadata pairs under o.Root, reshapes each data
// table and stacks the results. The first failing file aborts the merge.
func Tables(ctx context.Context, o Options) (*table.Table, error) {
	o.defaults()
	if err := CheckRoot(o.Root); err != nil {
		return nil, err
	}
	log := o.Logger.With(zap.String("run_id", uuid.NewString()))
	start := time.Now()

	data, meta, err := Discover(o.Root, o.DataPattern, o.MetadataPattern)
	if err != nil {
		o.Metrics.Failed("discover")
		return nil, err
	}
	if len(data) == 0 {
		o.Metrics.Failed("discover")
		return nil, fmt.Errorf("%w under %s matching %q", ErrNoDataFiles, o.Root, o.DataPattern)
	}
	log.Debug("discovered files", zap.Int("data", len(data)), zap.Int("metadata", len(meta)))

	var pairs []Pair
	switch o.Pairing {
	case PairingKeyed:
		pairs, err = PairKeyed(o.Root, data, meta)
	case PairingLockstep:
		log.Warn("lockstep pairing matches files by walk order only; check that data and metadata files line up")
		pairs, err = PairLockstep(data, meta)
	default:
		err = fmt.Errorf("unknown pairing %q", o.Pairing)
	}
	if err != nil {
		o.Metrics.Failed("pair")
		return nil, err
	}

	parts := make([]*table.Table, 0, len(pairs))
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, stage, err := File(o.Root, p)
		if err != nil {
			o.Metrics.Failed(stage)
			return nil, err
		}
		log.Debug("merged file",
			zap.String("data", p.Data),
			zap.String("metadata", p.Metadata),
			zap.Int("rows", t.Len()))
		o.Metrics.FileMerged(t.Len())
		parts = append(parts, t)
	}

	out := table.Concat(parts...)
	o.Metrics.Observe(time.Since(start).Seconds())
	log.Info("merge complete", zap.Int("files", len(parts)), zap.Int("rows", out.Len()), zap.Int("columns", len(out.Columns())))
	return out, nil
}

// File runs one pair through position decoding, ucid synthesis and
// reshaping. stage names the step that failed.
func File(root string, p Pair) (t *table.Table, stage string, err error) {
	pos, err := positionOf(filepath.Clean(root), p.Data)
	if err != nil {
		return nil, "position", err
	}
	raw, err := table.ReadFile(p.Data)
	if err != nil {
		return nil, "read", err
	}
	if err := ucid.Attach(raw, pos); err != nil {
		return nil, "ucid", fmt.Errorf("%s: %w", p.Data, err)
	}
	mt, err := table.ReadFile(p.Metadata)
	if err != nil {
		return nil, "read", err
	}
	m, err := channel.FromTable(mt, p.Metadata)
	if err != nil {
		return nil, "channel", err
	}
	out, err := reshape.ByChannel(raw, m)
	if err != nil {
		return nil, "reshape", fmt.Errorf("%s: %w", p.Data, err)
	}
	return out, "", nil
}
