package pipeline

import (
	"log/slog"

	"github.com/IshaanNene/ChartGoat/internal/types"
)

// Middleware processes an entry and returns the (possibly modified) entry.
// Return nil to drop the entry from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms an entry. Return nil to drop the entry.
	Process(entry *types.Entry) (*types.Entry, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the entry through all middleware in order. A nil entry with
// a nil error means some stage dropped it; stage names that stage.
func (p *Pipeline) Process(entry *types.Entry) (result *types.Entry, stage string, err error) {
	current := entry

	for _, mw := range p.middlewares {
		out, err := mw.Process(current)
		if err != nil {
			return nil, mw.Name(), &types.PipelineError{
				Stage: mw.Name(),
				Entry: current,
				Err:   err,
			}
		}
		if out == nil {
			p.logger.Debug("entry dropped", "stage", mw.Name(), "rank", entry.Rank, "title", entry.Title)
			return nil, mw.Name(), nil
		}
		current = out
	}

	return current, "", nil
}

// Report summarizes one batch run.
type Report struct {
	Kept    int
	Dropped map[string]int // stage -> count
	Errors  []error
}

// DroppedTotal sums drops across stages.
func (r *Report) DroppedTotal() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

// Run processes entries in document order and returns the survivors. A
// failing entry is dropped and its error reported; the batch continues.
func (p *Pipeline) Run(entries []*types.Entry) ([]*types.Entry, *Report) {
	report := &Report{Dropped: make(map[string]int)}
	kept := make([]*types.Entry, 0, len(entries))

	for _, e := range entries {
		out, stage, err := p.Process(e)
		if err != nil {
			report.Errors = append(report.Errors, err)
			report.Dropped[stage]++
			continue
		}
		if out == nil {
			report.Dropped[stage]++
			continue
		}
		kept = append(kept, out)
	}

	report.Kept = len(kept)
	p.logger.Debug("pipeline finished", "in", len(entries), "kept", report.Kept, "dropped", report.DroppedTotal())
	return kept, report
}

// Options selects the standard chart middleware.
type Options struct {
	Policy     Policy
	MaxEntries int
}

// Standard builds the chain every scrape uses: clean up text, fix links,
// apply the retention policy, enforce rank order, then cap the count.
// Stateful stages make the result single use.
func Standard(opts Options, logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(NewSanitizeMiddleware())
	p.Use(&AbsoluteURLMiddleware{})
	p.Use(&RequiredMiddleware{Policy: opts.Policy})
	p.Use(&RankOrderMiddleware{})
	p.Use(NewDedupMiddleware())
	if opts.MaxEntries > 0 {
		p.Use(&LimitMiddleware{Max: opts.MaxEntries})
	}
	return p
}
