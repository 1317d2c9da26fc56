// internal/app/commands.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cellid-core/table"
	"cellid/internal/celldata"
	"cellid/internal/cellview"
	"cellid/internal/config"
	"cellid/internal/logging"
	"cellid/internal/merge"
	"cellid/internal/metrics"
	"cellid/internal/sqlview"
	"cellid/internal/version"
	"cellid/internal/writers"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// state is shared by the command tree of one invocation.
type state struct {
	stdout io.Writer
	stderr io.Writer

	configPath  string
	verbose     bool
	quiet       bool
	metricsFile string

	dataPattern string
	metaPattern string
	pairing     string
	output      string
	outFile     string
	sql         string
	ucid        int64
	frame       int64

	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Merge
	// started is set once flags and config are accepted; errors before
	// that point are usage errors.
	started bool
}

const needsRoot = "needs-root"

func newRootCmd(st *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "cellid",
		Short: "Merge CellID output tables into one table per experiment",
		Long: `cellid walks an experiment directory, pairs every CellID data table
(*out_all) with its flag mapping (*mapping), and merges them into one
wide table keyed by a unique cell id (ucid) and time frame.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: st.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&st.configPath, "config", "", "YAML config file")
	pf.BoolVar(&st.verbose, "verbose", false, "debug logging")
	pf.BoolVar(&st.quiet, "quiet", false, "log errors only")
	pf.StringVar(&st.metricsFile, "metrics-file", "", "write merge metrics in Prometheus text format to this file")

	root.AddCommand(
		newMergeCmd(st),
		newQueryCmd(st),
		newLocateCmd(st),
		newVersionCmd(st),
	)
	return root
}

func (st *state) mergeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&st.dataPattern, "data", merge.DefaultDataPattern, "data table file name pattern")
	f.StringVar(&st.metaPattern, "meta", merge.DefaultMetadataPattern, "mapping table file name pattern")
	f.StringVar(&st.pairing, "pairing", string(merge.PairingKeyed), "how data files find their mapping: keyed | lockstep")
}

func (st *state) outputFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&st.output, "output", "o", writers.FormatTSV,
		"output format: "+strings.Join(writers.Formats(), " | "))
}

// setup loads the config file and lays the changed flags over it.
func (st *state) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	changed := func(name string) bool { return f.Lookup(name) != nil && f.Changed(name) }
	if changed("verbose") {
		cfg.Log.Verbose = st.verbose
	}
	if changed("quiet") {
		cfg.Log.Quiet = st.quiet
	}
	if changed("metrics-file") {
		cfg.MetricsFile = st.metricsFile
	}
	if changed("data") {
		cfg.DataPattern = st.dataPattern
	}
	if changed("meta") {
		cfg.MetadataPattern = st.metaPattern
	}
	if changed("pairing") {
		cfg.Pairing = merge.Pairing(st.pairing)
	}
	if changed("output") {
		cfg.Output = st.output
	}
	if len(args) > 0 {
		cfg.Root = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, ok := cmd.Annotations[needsRoot]; ok && cfg.Root == "" {
		return errors.New("no ROOT given (argument or config root)")
	}

	st.cfg = cfg
	st.log = logging.New(st.stderr, cfg.Log.Verbose, cfg.Log.Quiet)
	if cfg.MetricsFile != "" {
		st.metrics = metrics.NewMerge()
	}
	st.started = true
	return nil
}

func (st *state) load(ctx context.Context) (*celldata.Data, error) {
	o := st.cfg.MergeOptions()
	o.Logger = st.log
	o.Metrics = st.metrics
	d, err := celldata.New(o)
	if err != nil {
		return nil, err
	}
	if err := d.Load(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func newMergeCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "merge [ROOT]",
		Short:       "Merge every data table under ROOT and print the result",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{needsRoot: ""},
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			d, err := st.load(cmd.Context())
			if err != nil {
				return err
			}
			dst := st.stdout
			if st.outFile != "" {
				var fh *os.File
				if fh, err = os.Create(st.outFile); err != nil {
					return err
				}
				defer func() {
					if cErr := fh.Close(); err == nil {
						err = cErr
					}
				}()
				dst = fh
			}
			return writers.Write(st.cfg.Output, dst, d.Table())
		},
	}
	st.mergeFlags(cmd)
	st.outputFlag(cmd)
	cmd.Flags().StringVar(&st.outFile, "out", "", "write to FILE instead of stdout")
	return cmd
}

func newQueryCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [ROOT] --sql STMT",
		Short: "Run SQL against the merged table (loaded as " + sqlview.TableName + ")",
		Example: `  cellid query ./experiment --sql 'SELECT pos, COUNT(*) FROM cells GROUP BY pos'
  cellid query ./experiment --sql 'SELECT ucid, f_tot_yfp FROM cells WHERE t_frame = 0' -o json`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{needsRoot: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d, err := st.load(ctx)
			if err != nil {
				return err
			}
			v, err := sqlview.Open(ctx, d.Table())
			if err != nil {
				return err
			}
			defer v.Close()
			res, err := v.Query(ctx, st.sql)
			if err != nil {
				return err
			}
			st.log.Debug("query done", zap.Int("rows", res.Len()))
			return writers.Write(st.cfg.Output, st.stdout, res)
		},
	}
	st.mergeFlags(cmd)
	st.outputFlag(cmd)
	cmd.Flags().StringVar(&st.sql, "sql", "", "SQL statement")
	_ = cmd.MarkFlagRequired("sql")
	return cmd
}

func newLocateCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "locate [ROOT] --ucid N --frame F",
		Short:       "Print the image window (x, y, radius) around one cell",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{needsRoot: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := st.load(cmd.Context())
			if err != nil {
				return err
			}
			r, err := cellview.Locate(d, st.ucid, st.frame, st.log)
			if err != nil && !errors.Is(err, cellview.ErrCellLookupMismatch) {
				return err
			}
			t := table.New("x", "y", "radius")
			_ = t.Append(table.Row{
				table.IntValue(int64(r.X)),
				table.IntValue(int64(r.Y)),
				table.IntValue(int64(r.Radius)),
			})
			return writers.Write(st.cfg.Output, st.stdout, t)
		},
	}
	st.mergeFlags(cmd)
	st.outputFlag(cmd)
	cmd.Flags().Int64Var(&st.ucid, "ucid", 0, "unique cell id")
	cmd.Flags().Int64Var(&st.frame, "frame", 0, "time frame (t_frame)")
	_ = cmd.MarkFlagRequired("ucid")
	return cmd
}

func newVersionCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintf(st.stdout, "cellid version %s\n", version.Version)
			return err
		},
	}
}
