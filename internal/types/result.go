package types

import (
	"fmt"
	"time"
)

// Stage names the step of a scrape that produced a warning.
type Stage string

const (
	StageNavigate    Stage = "navigate"
	StageScroll      Stage = "scroll"
	StageExtract     Stage = "extract"
	StagePipeline    Stage = "pipeline"
	StageDiagnostics Stage = "diagnostics"
)

// Warning records a degraded but non-fatal outcome.
type Warning struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

// Result is the outcome of one scrape: the entries in document order plus
// everything that went wrong along the way without aborting the run.
type Result struct {
	Query    Query     `json:"query"`
	URL      string    `json:"url"`
	Entries  []*Entry  `json:"entries"`
	Warnings []Warning `json:"warnings,omitempty"`

	// DiagnosticPath is the screenshot captured when nothing was extracted.
	DiagnosticPath string `json:"diagnostic_path,omitempty"`

	Stats     map[string]int64 `json:"stats,omitempty"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
}

// NewResult creates an empty result for a query.
func NewResult(q Query, url string) *Result {
	return &Result{
		Query:     q,
		URL:       url,
		Entries:   make([]*Entry, 0),
		StartedAt: time.Now(),
	}
}

// Warn appends a warning.
func (r *Result) Warn(stage Stage, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Stage: stage, Message: fmt.Sprintf(format, args...)})
}

// Empty reports whether no entries survived extraction.
func (r *Result) Empty() bool {
	return len(r.Entries) == 0
}

// WarningsFor returns the warnings recorded for a stage.
func (r *Result) WarningsFor(stage Stage) []Warning {
	var out []Warning
	for _, w := range r.Warnings {
		if w.Stage == stage {
			out = append(out, w)
		}
	}
	return out
}
