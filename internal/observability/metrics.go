package observability

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"
)

// Metrics tracks the counters of one scrape.
type Metrics struct {
	// Navigation metrics
	NavigationAttempts atomic.Int64
	NavigationFailures atomic.Int64

	// Scroll metrics
	ScrollPolls   atomic.Int64
	MaxRankSeen   atomic.Int64
	ImagesFocused atomic.Int64

	// Extraction metrics
	RowsMatched      atomic.Int64
	RowsFailed       atomic.Int64
	EntriesExtracted atomic.Int64
	EntriesKept      atomic.Int64
	EntriesDropped   atomic.Int64

	// Outcome metrics
	Warnings            atomic.Int64
	DiagnosticsCaptured atomic.Int64
	SnapshotBytes       atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"navigation_attempts":  m.NavigationAttempts.Load(),
		"navigation_failures":  m.NavigationFailures.Load(),
		"scroll_polls":         m.ScrollPolls.Load(),
		"max_rank_seen":        m.MaxRankSeen.Load(),
		"images_focused":       m.ImagesFocused.Load(),
		"rows_matched":         m.RowsMatched.Load(),
		"rows_failed":          m.RowsFailed.Load(),
		"entries_extracted":    m.EntriesExtracted.Load(),
		"entries_kept":         m.EntriesKept.Load(),
		"entries_dropped":      m.EntriesDropped.Load(),
		"warnings":             m.Warnings.Load(),
		"diagnostics_captured": m.DiagnosticsCaptured.Load(),
		"snapshot_bytes":       m.SnapshotBytes.Load(),
	}
}

// LogSummary writes the snapshot as one structured log line.
func (m *Metrics) LogSummary() {
	snap := m.Snapshot()
	args := make([]any, 0, len(snap)*2)
	for _, k := range sortedKeys(snap) {
		args = append(args, k, snap[k])
	}
	m.logger.Info("scrape metrics", args...)
}

// WriteText writes a snapshot in Prometheus text exposition format, so a
// run's counters can be pushed to a textfile collector.
func WriteText(w io.Writer, snap map[string]int64) error {
	for _, k := range sortedKeys(snap) {
		name := "chartgoat_" + k
		if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n%s %d\n", name, name, snap[k]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
