package chart

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/ChartGoat/internal/browser"
	"github.com/IshaanNene/ChartGoat/internal/config"
	"github.com/IshaanNene/ChartGoat/internal/scroll"
	"github.com/IshaanNene/ChartGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var testQuery = types.Query{Category: "short", Country: "south-korea", Period: "daily"}

const twoRows = `<html><body>
<div class="chart__row">
  <div class="rank"><span class="current">1</span></div>
  <a class="title__label" href="/en/video/AAA111"><h3>First</h3></a>
  <div class="score"><span class="fluc-label">1,000</span></div>
  <div class="channel"><span class="name">Alpha</span></div>
</div>
<div class="chart__row">
  <div class="rank"><span class="current">2</span></div>
  <a class="title__label" href="/en/video/BBB222"><h3>Second</h3></a>
  <div class="score"><span class="fluc-label">900</span></div>
  <div class="channel"><span class="name">Beta</span></div>
</div>
<div class="chart__row"></div>
</body></html>`

// --- fakes ---

type fakePage struct {
	html    string
	url     string  // reported by URL; empty means the chart page
	navErrs []error // consumed one per Navigate call

	mu    sync.Mutex
	waits []browser.WaitCondition
}

func (p *fakePage) Navigate(ctx context.Context, url string, wait browser.WaitCondition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits = append(p.waits, wait)
	if len(p.navErrs) == 0 {
		return nil
	}
	err := p.navErrs[0]
	p.navErrs = p.navErrs[1:]
	return err
}

func (p *fakePage) HTML(context.Context) (string, error)       { return p.html, nil }
func (p *fakePage) URL(context.Context) (string, error) {
	if p.url != "" {
		return p.url, nil
	}
	return "https://playboard.co/chart/short", nil
}

func (p *fakePage) Screenshot(context.Context) ([]byte, error) { return []byte("png"), nil }
func (p *fakePage) Eval(context.Context, string) (int, error)  { return 0, nil }
func (p *fakePage) ScrollBy(context.Context, int) error        { return nil }
func (p *fakePage) ScrollToBottom(context.Context) error       { return nil }
func (p *fakePage) MaxRank(context.Context) (int, error)       { return 0, nil }

func (p *fakePage) Measure(context.Context) (scroll.Metrics, error) {
	return scroll.Metrics{ScrollHeight: 1000, ViewportBottom: 1000}, nil
}

func (p *fakePage) FocusEach(context.Context, string, func() error) (int, error) { return 0, nil }

type fakeSession struct {
	page    *fakePage
	pageErr error

	mu     sync.Mutex
	closed int
}

func (s *fakeSession) NewPage(context.Context) (browser.Page, error) {
	if s.pageErr != nil {
		return nil, s.pageErr
	}
	return s.page, nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeLauncher struct {
	session  *fakeSession
	err      error
	launched int

	// started and release let a test hold a scrape in flight.
	started chan struct{}
	release chan struct{}
}

func (l *fakeLauncher) Launch(ctx context.Context) (browser.Session, error) {
	l.launched++
	if l.started != nil {
		close(l.started)
		<-l.release
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) record(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func newTestScraper(t *testing.T, l browser.Launcher, rec *recorder) *Scraper {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Diagnostics.Dir = t.TempDir()

	opts := []Option{WithLauncher(l), WithSleep(noSleep)}
	if rec != nil {
		opts = append(opts, WithProgress(rec.record))
	}
	s, err := New(cfg, testLogger, opts...)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	return s
}

// --- tests ---

func TestScrapeSuccess(t *testing.T) {
	sess := &fakeSession{page: &fakePage{html: twoRows}}
	rec := &recorder{}
	s := newTestScraper(t, &fakeLauncher{session: sess}, rec)

	res, err := s.Scrape(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}

	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(res.Entries))
	}
	if res.Entries[0].VideoURL != "https://www.youtube.com/watch?v=AAA111" {
		t.Errorf("unexpected video url %q", res.Entries[0].VideoURL)
	}
	if sess.closeCount() != 1 {
		t.Errorf("expected session closed once, got %d", sess.closeCount())
	}
	if res.DiagnosticPath != "" {
		t.Errorf("expected no diagnostics, got %q", res.DiagnosticPath)
	}
	if len(res.WarningsFor(types.StageNavigate)) != 0 {
		t.Errorf("unexpected navigation warnings %v", res.Warnings)
	}
	if res.Stats["rows_matched"] != 3 || res.Stats["entries_kept"] != 2 || res.Stats["entries_dropped"] != 1 {
		t.Errorf("unexpected stats %v", res.Stats)
	}

	want := []string{"loading", "scrolling", "extracting", "done: 2 entries"}
	if diff := cmp.Diff(want, rec.msgs); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
	if s.State() != StateIdle {
		t.Errorf("expected idle after scrape, got %s", s.State())
	}
}

func TestScrapeLogsMetricsSummary(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Diagnostics.Dir = t.TempDir()
	sess := &fakeSession{page: &fakePage{html: twoRows}}
	s, err := New(cfg, slog.New(slog.NewTextHandler(&buf, nil)), WithLauncher(&fakeLauncher{session: sess}), WithSleep(noSleep))
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}

	if _, err := s.Scrape(context.Background(), testQuery); err != nil {
		t.Fatalf("scrape: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "scrape metrics") || !strings.Contains(out, "entries_kept=2") {
		t.Errorf("expected a metrics summary line, got:\n%s", out)
	}
}

func TestScrapeRetriesNavigationOnce(t *testing.T) {
	page := &fakePage{html: twoRows, navErrs: []error{errors.New("timeout")}}
	sess := &fakeSession{page: page}
	rec := &recorder{}
	s := newTestScraper(t, &fakeLauncher{session: sess}, rec)

	res, err := s.Scrape(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}

	if diff := cmp.Diff([]browser.WaitCondition{browser.WaitStable, browser.WaitLoad}, page.waits); diff != "" {
		t.Errorf("wait conditions mismatch (-want +got):\n%s", diff)
	}
	if len(res.WarningsFor(types.StageNavigate)) != 1 {
		t.Errorf("expected one navigation warning, got %v", res.Warnings)
	}
	if !strings.Contains(strings.Join(rec.msgs, ","), "retrying") {
		t.Errorf("expected retrying progress, got %v", rec.msgs)
	}
	if len(res.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(res.Entries))
	}
}

func TestScrapeContinuesAfterSecondNavigationFailure(t *testing.T) {
	page := &fakePage{html: twoRows, navErrs: []error{errors.New("timeout"), errors.New("timeout again")}}
	sess := &fakeSession{page: page}
	s := newTestScraper(t, &fakeLauncher{session: sess}, nil)

	res, err := s.Scrape(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("navigation failure must not be fatal: %v", err)
	}
	if len(page.waits) != 2 {
		t.Errorf("expected exactly 2 navigation attempts, got %d", len(page.waits))
	}
	if sess.closeCount() != 1 {
		t.Errorf("expected session closed once, got %d", sess.closeCount())
	}
	if len(res.WarningsFor(types.StageNavigate)) != 3 {
		t.Errorf("expected two failures plus a continue warning, got %v", res.Warnings)
	}
	if len(res.Entries) != 2 {
		t.Errorf("expected extraction from the partial page, got %d entries", len(res.Entries))
	}
	if res.Stats["navigation_attempts"] != 2 || res.Stats["navigation_failures"] != 2 {
		t.Errorf("unexpected stats %v", res.Stats)
	}
}

func TestScrapeErrorPageURLIsNotALinkBase(t *testing.T) {
	const row = `<html><body>
<div class="chart__row">
  <div class="rank"><span class="current">1</span></div>
  <div class="thumb"><img src="/thumbs/a.jpg"></div>
  <a class="title__label" href="/en/video/AAA111"><h3>First</h3></a>
  <div class="score"><span class="fluc-label">1,000</span></div>
  <div class="channel"><span class="name">Alpha</span></div>
</div>
</body></html>`

	for _, pageURL := range []string{"chrome-error://chromewebdata/", "about:blank"} {
		t.Run(pageURL, func(t *testing.T) {
			page := &fakePage{
				html:    row,
				url:     pageURL,
				navErrs: []error{errors.New("net::ERR_TIMED_OUT"), errors.New("net::ERR_TIMED_OUT")},
			}
			s := newTestScraper(t, &fakeLauncher{session: &fakeSession{page: page}}, nil)

			res, err := s.Scrape(context.Background(), testQuery)
			if err != nil {
				t.Fatalf("scrape: %v", err)
			}
			if len(res.Entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(res.Entries))
			}
			if got := res.Entries[0].ThumbnailURL; got != "https://playboard.co/thumbs/a.jpg" {
				t.Errorf("expected thumbnail resolved against the chart URL, got %q", got)
			}
		})
	}
}

func TestScrapeZeroRowsCapturesDiagnostics(t *testing.T) {
	sess := &fakeSession{page: &fakePage{html: `<html><body><p>maintenance</p></body></html>`}}
	s := newTestScraper(t, &fakeLauncher{session: sess}, nil)

	res, err := s.Scrape(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("zero rows must not be an error: %v", err)
	}
	if res.Entries == nil || len(res.Entries) != 0 {
		t.Errorf("expected empty non-nil entries, got %v", res.Entries)
	}
	if res.DiagnosticPath == "" {
		t.Fatal("expected a diagnostic path")
	}
	if _, err := os.Stat(res.DiagnosticPath); err != nil {
		t.Errorf("diagnostic file missing: %v", err)
	}
	if len(res.WarningsFor(types.StageExtract)) == 0 {
		t.Error("expected a no-rows warning")
	}
	if sess.closeCount() != 1 {
		t.Errorf("expected session closed once, got %d", sess.closeCount())
	}
}

func TestScrapeRejectsConcurrentCall(t *testing.T) {
	l := &fakeLauncher{
		session: &fakeSession{page: &fakePage{html: twoRows}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newTestScraper(t, l, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Scrape(context.Background(), testQuery)
		done <- err
	}()

	<-l.started
	if _, err := s.Scrape(context.Background(), testQuery); !errors.Is(err, types.ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	close(l.release)

	if err := <-done; err != nil {
		t.Fatalf("first scrape: %v", err)
	}
	if l.launched != 1 {
		t.Errorf("expected one launch, got %d", l.launched)
	}
}

func TestScrapeLaunchFailure(t *testing.T) {
	rec := &recorder{}
	s := newTestScraper(t, &fakeLauncher{err: errors.New("chromium not found")}, rec)

	_, err := s.Scrape(context.Background(), testQuery)
	var serr *types.SessionError
	if !errors.As(err, &serr) || serr.Op != "launch" {
		t.Fatalf("expected launch SessionError, got %v", err)
	}
	if last := rec.msgs[len(rec.msgs)-1]; !strings.Contains(last, "chromium not found") {
		t.Errorf("expected error text as last progress message, got %q", last)
	}
	if s.State() != StateIdle {
		t.Error("expected scraper to be idle after failure")
	}
}

func TestScrapePageFailureClosesSession(t *testing.T) {
	sess := &fakeSession{pageErr: errors.New("target crashed")}
	s := newTestScraper(t, &fakeLauncher{session: sess}, nil)

	_, err := s.Scrape(context.Background(), testQuery)
	var serr *types.SessionError
	if !errors.As(err, &serr) || serr.Op != "new page" {
		t.Fatalf("expected new page SessionError, got %v", err)
	}
	if sess.closeCount() != 1 {
		t.Errorf("expected session closed once, got %d", sess.closeCount())
	}
}

func TestScrapeCancelledClosesSession(t *testing.T) {
	sess := &fakeSession{page: &fakePage{html: twoRows}}
	s := newTestScraper(t, &fakeLauncher{session: sess}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scrape(ctx, testQuery)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if sess.closeCount() != 1 {
		t.Errorf("expected session closed once, got %d", sess.closeCount())
	}
}

func TestScrapeInvalidQuery(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestScraper(t, l, nil)

	_, err := s.Scrape(context.Background(), types.Query{Category: "short", Country: "a/b", Period: "daily"})
	if !errors.Is(err, types.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if l.launched != 0 {
		t.Error("invalid query must not launch a browser")
	}
}

func TestExtractSnapshot(t *testing.T) {
	s := newTestScraper(t, &fakeLauncher{}, nil)

	res := s.ExtractSnapshot(testQuery, twoRows, "https://playboard.co/chart/short")
	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(res.Entries))
	}
	if res.Stats["entries_dropped"] != 1 {
		t.Errorf("expected the empty row to be dropped, got %v", res.Stats)
	}
}

func TestExtractSnapshotKeepsDecodedText(t *testing.T) {
	s := newTestScraper(t, &fakeLauncher{}, nil)

	const page = `<html><body>
<div class="chart__row">
  <div class="rank"><span class="current">1</span></div>
  <a class="title__label" href="/en/video/CCC333"><h3>IU &lt;Love wins all&gt; MV</h3></a>
  <div class="score"><span class="fluc-label">5,000</span></div>
  <div class="channel"><span class="name">Tom &amp;amp; Jerry</span></div>
</div>
</body></html>`

	res := s.ExtractSnapshot(testQuery, page, "https://playboard.co/chart/short")
	if len(res.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(res.Entries))
	}
	if got := res.Entries[0].Title; got != "IU <Love wins all> MV" {
		t.Errorf("unexpected title %q", got)
	}
	if got := res.Entries[0].ChannelName; got != "Tom &amp; Jerry" {
		t.Errorf("unexpected channel %q", got)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scroll.Strategy = "bounce"
	if _, err := New(cfg, testLogger, WithLauncher(&fakeLauncher{})); err == nil {
		t.Error("expected error for unknown scroll strategy")
	}

	cfg = config.DefaultConfig()
	cfg.Extract.Policy = "loose"
	if _, err := New(cfg, testLogger, WithLauncher(&fakeLauncher{})); err == nil {
		t.Error("expected error for unknown policy")
	}
}
