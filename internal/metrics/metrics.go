// Package metrics holds the prometheus collectors observed during a merge.
// cellid is a batch tool, so collectors are written once to a node_exporter
// textfile rather than served.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Merge groups the merge collectors. A nil *Merge is valid and records nothing.
type Merge struct {
	Registry *prometheus.Registry

	files    prometheus.Counter
	rows     prometheus.Counter
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMerge registers the merge collectors on a fresh registry.
func NewMerge() *Merge {
	m := &Merge{
		Registry: prometheus.NewRegistry(),
		files: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cellid",
			Name:      "merge_files_total",
			Help:      "Data files merged.",
		}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cellid",
			Name:      "merge_rows_total",
			Help:      "Rows in the merged tables.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cellid",
			Name:      "merge_failures_total",
			Help:      "Merges aborted, by failing stage.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cellid",
			Name:      "merge_duration_seconds",
			Help:      "Wall time of a whole merge.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	m.Registry.MustRegister(m.files, m.rows, m.failures, m.duration)
	return m
}

func (m *Merge) FileMerged(rows int) {
	if m == nil {
		return
	}
	m.files.Inc()
	m.rows.Add(float64(rows))
}

func (m *Merge) Failed(stage string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(stage).Inc()
}

func (m *Merge) Observe(seconds float64) {
	if m == nil {
		return
	}
	m.duration.Observe(seconds)
}

// WriteTextfile writes the current values in the text exposition format.
func (m *Merge) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
