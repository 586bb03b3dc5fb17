package scroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// bottomSlack is how close to the document end counts as the bottom.
	bottomSlack = 50
	// minProgress is the smallest viewport movement that counts as change.
	minProgress = 10
)

// HeightDriver scrolls by a fixed step and stops at the bottom of the
// document, after MaxPolls steps, or when the viewport stops moving.
type HeightDriver struct {
	base
}

// NewHeightDriver creates a height-stability driver.
func NewHeightDriver(opts Options, logger *slog.Logger, options ...Option) *HeightDriver {
	if opts.Interval <= 0 {
		opts.Interval = 500 * time.Millisecond
	}
	if opts.StallLimit <= 0 {
		opts.StallLimit = 30
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = 300
	}
	if opts.Step <= 0 {
		opts.Step = 300
	}
	return &HeightDriver{base: newBase(opts, logger, "height_scroll", options)}
}

func (d *HeightDriver) Name() string { return "height" }

// Scroll implements Driver.
func (d *HeightDriver) Scroll(ctx context.Context, vp Viewport) (Stats, error) {
	start := time.Now()
	stats := Stats{Reason: StopMaxPolls}

	lastBottom, noChange := 0, 0

	for stats.Polls < d.opts.MaxPolls {
		if err := d.sleep(ctx, d.opts.Interval); err != nil {
			return stats, err
		}
		if err := vp.ScrollBy(ctx, d.opts.Step); err != nil {
			return stats, fmt.Errorf("scroll: %w", err)
		}
		stats.Polls++

		m, err := vp.Measure(ctx)
		if err != nil {
			return stats, fmt.Errorf("measure: %w", err)
		}
		stats.ScrollHeight = m.ScrollHeight

		if abs(m.ViewportBottom-lastBottom) < minProgress {
			noChange++
		} else {
			noChange = 0
		}
		lastBottom = m.ViewportBottom

		d.logger.Debug("poll", "n", stats.Polls, "bottom", m.ViewportBottom, "height", m.ScrollHeight, "unchanged", noChange)

		if m.ViewportBottom >= m.ScrollHeight-bottomSlack {
			stats.Reason = StopBottom
			break
		}
		if noChange >= d.opts.StallLimit {
			stats.Reason = StopStalled
			break
		}
	}

	d.logger.Info("scroll stopped", "reason", stats.Reason, "polls", stats.Polls, "height", stats.ScrollHeight)

	err := d.finish(ctx, vp, &stats)
	stats.Elapsed = time.Since(start)
	return stats, err
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
