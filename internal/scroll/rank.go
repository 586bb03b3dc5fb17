package scroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Checkpoints are the ranks at which the rank driver pauses and jitters the
// scroll position so thumbnails in that band get a chance to load.
var Checkpoints = []int{5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 60, 70, 80, 90, 100, 120, 140, 160, 180, 200}

const (
	jitterBack  = 200
	jitterAhead = 400
	jitterPause = 500 * time.Millisecond
)

// RankDriver polls for the highest rendered rank and stops once it reaches
// the target or stops increasing.
type RankDriver struct {
	base
	checkpoints map[int]bool
}

// NewRankDriver creates a rank-sighting driver.
func NewRankDriver(opts Options, logger *slog.Logger, options ...Option) *RankDriver {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.TargetRank <= 0 {
		opts.TargetRank = 200
	}
	if opts.StallLimit <= 0 {
		opts.StallLimit = 5
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = 300
	}
	if opts.Step <= 0 {
		opts.Step = 800
	}

	cp := make(map[int]bool, len(Checkpoints))
	for _, r := range Checkpoints {
		cp[r] = true
	}

	return &RankDriver{
		base:        newBase(opts, logger, "rank_scroll", options),
		checkpoints: cp,
	}
}

func (d *RankDriver) Name() string { return "rank" }

// Scroll implements Driver.
func (d *RankDriver) Scroll(ctx context.Context, vp Viewport) (Stats, error) {
	start := time.Now()
	stats := Stats{Reason: StopMaxPolls}

	maxRank, previous, unchanged := 0, 0, 0

loop:
	for stats.Polls < d.opts.MaxPolls {
		if err := d.sleep(ctx, d.opts.Interval); err != nil {
			return stats, err
		}
		stats.Polls++

		rank, err := vp.MaxRank(ctx)
		if err != nil {
			return stats, fmt.Errorf("read max rank: %w", err)
		}
		if rank > maxRank {
			maxRank = rank
		}
		stats.MaxRank = maxRank

		if d.checkpoints[maxRank] && maxRank > previous {
			d.logger.Debug("checkpoint reached, jittering", "rank", maxRank)
			if err := d.jitter(ctx, vp); err != nil {
				return stats, err
			}
		} else if err := vp.ScrollBy(ctx, d.opts.Step); err != nil {
			return stats, fmt.Errorf("scroll: %w", err)
		}

		d.logger.Debug("poll", "n", stats.Polls, "max_rank", maxRank)

		switch {
		case maxRank >= d.opts.TargetRank:
			stats.Reason = StopTarget
			break loop
		case maxRank == 0:
			// Nothing rendered yet; keep scrolling.
		case maxRank == previous:
			unchanged++
			if unchanged >= d.opts.StallLimit {
				stats.Reason = StopStalled
				break loop
			}
		default:
			unchanged = 0
		}
		previous = maxRank
	}

	d.logger.Info("scroll stopped", "reason", stats.Reason, "polls", stats.Polls, "max_rank", maxRank)

	err := d.finish(ctx, vp, &stats)
	stats.Elapsed = time.Since(start)
	return stats, err
}

func (d *RankDriver) jitter(ctx context.Context, vp Viewport) error {
	if err := vp.ScrollBy(ctx, -jitterBack); err != nil {
		return fmt.Errorf("jitter back: %w", err)
	}
	if err := d.sleep(ctx, jitterPause); err != nil {
		return err
	}
	if err := vp.ScrollBy(ctx, jitterAhead); err != nil {
		return fmt.Errorf("jitter ahead: %w", err)
	}
	return nil
}
