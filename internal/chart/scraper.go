// Package chart scrapes one ranked video chart per call: it drives a browser
// session through navigation, lazy-load scrolling and extraction, and always
// tears the session down before returning.
package chart

import (
	"context"
	"fmt"
	"log/slog"
	neturl "net/url"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/ChartGoat/internal/browser"
	"github.com/IshaanNene/ChartGoat/internal/config"
	"github.com/IshaanNene/ChartGoat/internal/diagnostics"
	"github.com/IshaanNene/ChartGoat/internal/extract"
	"github.com/IshaanNene/ChartGoat/internal/observability"
	"github.com/IshaanNene/ChartGoat/internal/pipeline"
	"github.com/IshaanNene/ChartGoat/internal/scroll"
	"github.com/IshaanNene/ChartGoat/internal/types"
)

// State is the scraper's lifecycle state.
type State int32

const (
	StateIdle    State = 0
	StateRunning State = 1
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Progress receives short human-readable status updates.
type Progress func(msg string)

const (
	focusPause      = 100 * time.Millisecond
	diagnosticsName = "no-entries"
)

// Scraper scrapes chart pages. A Scraper runs one scrape at a time; a call
// made while another is in flight fails with types.ErrBusy.
type Scraper struct {
	cfg       *config.Config
	launcher  browser.Launcher
	driver    scroll.Driver
	extractor *extract.Extractor
	diag      *diagnostics.Capturer
	policy    pipeline.Policy
	sleep     scroll.SleepFunc
	progress  Progress
	logger    *slog.Logger

	state atomic.Int32
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLauncher replaces the Chromium launcher.
func WithLauncher(l browser.Launcher) Option {
	return func(s *Scraper) { s.launcher = l }
}

// WithProgress sets the progress callback.
func WithProgress(fn Progress) Option {
	return func(s *Scraper) { s.progress = fn }
}

// WithSleep replaces every fixed delay, including the scroll driver's.
func WithSleep(fn scroll.SleepFunc) Option {
	return func(s *Scraper) { s.sleep = fn }
}

// New creates a Scraper from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Scraper, error) {
	s := &Scraper{
		cfg:    cfg,
		sleep:  scroll.Sleep,
		logger: logger.With("component", "scraper"),
	}
	for _, opt := range opts {
		opt(s)
	}

	policy, err := pipeline.ParsePolicy(cfg.Extract.Policy)
	if err != nil {
		return nil, err
	}
	s.policy = policy

	s.driver, err = scroll.New(cfg.Scroll.Strategy, scroll.Options{
		Interval:   cfg.Scroll.Interval,
		TargetRank: cfg.Scroll.TargetRank,
		StallLimit: cfg.Scroll.StallLimit,
		MaxPolls:   cfg.Scroll.MaxPolls,
		Step:       cfg.Scroll.Step,
		Cooldown:   cfg.Scroll.Cooldown,
	}, logger, scroll.WithSleep(s.sleep))
	if err != nil {
		return nil, err
	}

	if s.launcher == nil {
		s.launcher = browser.NewLauncher(cfg.Browser, logger)
	}
	s.extractor = extract.New(extract.Options{
		WatchBase:   cfg.Chart.WatchBase,
		ChannelBase: cfg.Chart.ChannelBase,
	}, logger)
	if cfg.Diagnostics.Enabled {
		s.diag = diagnostics.New(cfg.Diagnostics.Dir, logger)
	}
	return s, nil
}

// State returns the current lifecycle state.
func (s *Scraper) State() State {
	return State(s.state.Load())
}

func (s *Scraper) report(msg string) {
	if s.progress != nil {
		s.progress(msg)
	}
}

// Scrape loads the chart for q and returns its entries. Only failures to
// set up or read the browser session are returned as errors, always as
// *types.SessionError; everything else degrades into Result.Warnings. The
// session is closed before Scrape returns on every path.
func (s *Scraper) Scrape(ctx context.Context, q types.Query) (*types.Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, types.ErrBusy
	}
	defer s.state.Store(int32(StateIdle))

	url := q.URL(s.cfg.Chart.URLTemplate)
	res := types.NewResult(q, url)
	metrics := observability.NewMetrics(s.logger)
	defer func() {
		metrics.Warnings.Store(int64(len(res.Warnings)))
		res.Stats = metrics.Snapshot()
		res.Duration = time.Since(res.StartedAt)
		metrics.LogSummary()
	}()

	s.logger.Info("scrape started", "query", q.String(), "url", url, "strategy", s.driver.Name())
	s.report("loading")

	sess, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, s.fail("launch", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.Warn("browser teardown failed", "error", err)
		}
	}()

	page, err := sess.NewPage(ctx)
	if err != nil {
		return nil, s.fail("new page", err)
	}

	if err := s.navigate(ctx, page, url, res, metrics); err != nil {
		return nil, s.fail("navigate", err)
	}
	if err := s.sleep(ctx, s.cfg.Browser.SettleDelay); err != nil {
		return nil, s.fail("settle", err)
	}

	s.report("scrolling")
	if err := s.scrollPage(ctx, page, res, metrics); err != nil {
		return nil, s.fail("scroll", err)
	}

	s.report("extracting")
	if n, err := page.Eval(ctx, extract.AnnotateScript); err != nil {
		res.Warn(types.StageExtract, "annotate computed styles: %v", err)
	} else {
		s.logger.Debug("computed styles annotated", "elements", n)
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, s.fail("snapshot", err)
	}
	pageURL, err := page.URL(ctx)
	if err != nil || !isWebURL(pageURL) {
		pageURL = url
	}

	s.process(html, pageURL, res, metrics)

	if res.Empty() {
		s.captureDiagnostics(ctx, page, res, metrics)
	}

	s.logger.Info("scrape finished",
		"entries", len(res.Entries),
		"warnings", len(res.Warnings),
		"duration", time.Since(res.StartedAt),
	)
	s.report(fmt.Sprintf("done: %d entries", len(res.Entries)))
	return res, nil
}

// isWebURL reports whether raw can serve as a base for relative links. Failed
// navigations leave the page on about:blank or a chrome-error:// page.
func isWebURL(raw string) bool {
	u, err := neturl.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// ExtractSnapshot runs extraction and post-processing over a saved DOM
// snapshot without a browser.
func (s *Scraper) ExtractSnapshot(q types.Query, html, pageURL string) *types.Result {
	res := types.NewResult(q, pageURL)
	metrics := observability.NewMetrics(s.logger)
	s.process(html, pageURL, res, metrics)
	metrics.Warnings.Store(int64(len(res.Warnings)))
	res.Stats = metrics.Snapshot()
	res.Duration = time.Since(res.StartedAt)
	return res
}

func (s *Scraper) fail(op string, err error) error {
	serr := &types.SessionError{Op: op, Err: err}
	s.logger.Error("scrape failed", "op", op, "error", err)
	s.report(serr.Error())
	return serr
}

// navigate loads url waiting for a stable page, retries once on the looser
// load event, and then carries on with whatever the page holds. Only
// cancellation is returned.
func (s *Scraper) navigate(ctx context.Context, page browser.Page, url string, res *types.Result, m *observability.Metrics) error {
	for attempt, wait := range []browser.WaitCondition{browser.WaitStable, browser.WaitLoad} {
		if attempt > 0 {
			s.report("retrying")
		}
		m.NavigationAttempts.Add(1)

		err := page.Navigate(ctx, url, wait)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		m.NavigationFailures.Add(1)
		navErr := &types.NavigationError{URL: url, Attempt: attempt + 1, Err: err}
		res.Warn(types.StageNavigate, "%v", navErr)
		s.logger.Warn("navigation failed", "attempt", attempt+1, "wait", wait.String(), "error", err)
	}

	res.Warn(types.StageNavigate, "continuing with partially loaded page")
	return nil
}

// scrollPage runs the driver and the optional image focus pass. Driver failures
// other than cancellation become warnings.
func (s *Scraper) scrollPage(ctx context.Context, page browser.Page, res *types.Result, m *observability.Metrics) error {
	stats, err := s.driver.Scroll(ctx, page)
	m.ScrollPolls.Store(int64(stats.Polls))
	m.MaxRankSeen.Store(int64(stats.MaxRank))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		res.Warn(types.StageScroll, "%s scroll: %v", s.driver.Name(), err)
	} else {
		s.logger.Debug("scroll complete", "reason", stats.Reason, "polls", stats.Polls, "elapsed", stats.Elapsed)
	}

	if !s.cfg.Scroll.FocusImages {
		return nil
	}
	n, err := scroll.Focus(ctx, page, focusPause, s.cfg.Scroll.Cooldown, s.sleep)
	m.ImagesFocused.Store(int64(n))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		res.Warn(types.StageScroll, "%v", err)
	}
	return nil
}

// process extracts entries from html and runs them through the pipeline.
func (s *Scraper) process(html, pageURL string, res *types.Result, m *observability.Metrics) {
	m.SnapshotBytes.Store(int64(len(html)))

	ex, err := s.extractor.Extract(html, pageURL)
	res.Warnings = append(res.Warnings, ex.Warnings...)
	if err != nil {
		res.Warn(types.StageExtract, "%v", err)
	} else {
		s.logger.Debug("rows extracted", "locator", ex.Locator.String(), "rows", ex.Rows, "failed", ex.Failed)
	}
	m.RowsMatched.Store(int64(ex.Rows))
	m.RowsFailed.Store(int64(ex.Failed))
	m.EntriesExtracted.Store(int64(len(ex.Entries)))

	p := pipeline.Standard(pipeline.Options{
		Policy:     s.policy,
		MaxEntries: s.cfg.Extract.MaxEntries,
	}, s.logger)
	kept, report := p.Run(ex.Entries)
	for _, perr := range report.Errors {
		res.Warn(types.StagePipeline, "%v", perr)
	}
	if n := report.Dropped["required"]; n > 0 {
		res.Warn(types.StagePipeline, "%d incomplete entries dropped (%s policy)", n, s.policy)
	}

	m.EntriesKept.Store(int64(report.Kept))
	m.EntriesDropped.Store(int64(report.DroppedTotal()))
	res.Entries = kept
}

// captureDiagnostics saves what the page looked like when nothing was
// extracted. Failures only add warnings.
func (s *Scraper) captureDiagnostics(ctx context.Context, page browser.Page, res *types.Result, m *observability.Metrics) {
	if s.diag == nil {
		return
	}
	artifacts, err := s.diag.Capture(ctx, page, diagnosticsName)
	if err != nil {
		res.Warn(types.StageDiagnostics, "%v", err)
	}
	res.DiagnosticPath = artifacts.Screenshot
	if res.DiagnosticPath == "" {
		res.DiagnosticPath = artifacts.Snapshot
	}
	if res.DiagnosticPath != "" {
		m.DiagnosticsCaptured.Add(1)
	}
}
