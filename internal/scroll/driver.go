// Package scroll drives a lazily rendered page until enough chart rows have
// materialized.
package scroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Metrics is one measurement of the document and viewport, in CSS pixels.
type Metrics struct {
	ScrollHeight   int // document.documentElement.scrollHeight
	ViewportBottom int // window.innerHeight + window.scrollY
}

// Viewport is the part of a browser page the scroll driver needs.
type Viewport interface {
	ScrollBy(ctx context.Context, dy int) error
	ScrollToBottom(ctx context.Context) error
	Measure(ctx context.Context) (Metrics, error)
	// MaxRank returns the highest rank number currently rendered, 0 if none.
	MaxRank(ctx context.Context) (int, error)
}

// StopReason explains why a scroll loop ended.
type StopReason string

const (
	StopTarget   StopReason = "target_reached"
	StopBottom   StopReason = "bottom_reached"
	StopStalled  StopReason = "stalled"
	StopMaxPolls StopReason = "max_polls"
)

// Stats summarizes one scroll run.
type Stats struct {
	Polls        int
	MaxRank      int
	ScrollHeight int
	Reason       StopReason
	Elapsed      time.Duration
}

// Driver scrolls a viewport until its termination heuristic is satisfied.
type Driver interface {
	Name() string
	Scroll(ctx context.Context, vp Viewport) (Stats, error)
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options configures both heuristics. Zero values are replaced by the
// defaults of the heuristic being built.
type Options struct {
	Interval   time.Duration
	TargetRank int
	StallLimit int
	MaxPolls   int
	Step       int
	Cooldown   time.Duration
}

// Option configures a driver.
type Option func(*base)

// WithSleep replaces the sleep function, mainly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(b *base) { b.sleep = fn }
}

// base holds what both heuristics share.
type base struct {
	opts   Options
	sleep  SleepFunc
	logger *slog.Logger
}

func newBase(opts Options, logger *slog.Logger, component string, options []Option) base {
	b := base{
		opts:   opts,
		sleep:  Sleep,
		logger: logger.With("component", component),
	}
	for _, o := range options {
		o(&b)
	}
	return b
}

// finish forces one last scroll to the bottom and lets late content settle.
func (b *base) finish(ctx context.Context, vp Viewport, stats *Stats) error {
	if err := vp.ScrollToBottom(ctx); err != nil {
		return fmt.Errorf("final scroll: %w", err)
	}
	if m, err := vp.Measure(ctx); err == nil {
		stats.ScrollHeight = m.ScrollHeight
	}
	return b.sleep(ctx, b.opts.Cooldown)
}

// New builds the driver named by strategy ("rank" or "height").
func New(strategy string, opts Options, logger *slog.Logger, options ...Option) (Driver, error) {
	switch strategy {
	case "rank":
		return NewRankDriver(opts, logger, options...), nil
	case "height":
		return NewHeightDriver(opts, logger, options...), nil
	default:
		return nil, fmt.Errorf("unknown scroll strategy %q", strategy)
	}
}
