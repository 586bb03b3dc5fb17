package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/ChartGoat/internal/config"
	"github.com/IshaanNene/ChartGoat/internal/scroll"
	"github.com/IshaanNene/ChartGoat/internal/types"
)

const (
	scrollByJS       = `(dy) => window.scrollBy(0, dy)`
	scrollToBottomJS = `() => window.scrollTo(0, document.documentElement.scrollHeight)`
	measureJS        = `() => ({
		height: document.documentElement.scrollHeight,
		bottom: window.innerHeight + window.scrollY,
	})`
	maxRankJS = `() => {
		let max = 0;
		document.querySelectorAll('.current--long').forEach(el => {
			const n = parseInt(el.textContent.trim(), 10);
			if (!isNaN(n) && n > max) max = n;
		});
		return max;
	}`
)

var resourceTypes = map[string]proto.NetworkResourceType{
	"font":       proto.NetworkResourceTypeFont,
	"media":      proto.NetworkResourceTypeMedia,
	"image":      proto.NetworkResourceTypeImage,
	"stylesheet": proto.NetworkResourceTypeStylesheet,
}

// RodLauncher launches a local Chromium through go-rod.
type RodLauncher struct {
	cfg    config.BrowserConfig
	logger *slog.Logger
}

// NewLauncher creates a RodLauncher.
func NewLauncher(cfg config.BrowserConfig, logger *slog.Logger) *RodLauncher {
	return &RodLauncher{
		cfg:    cfg,
		logger: logger.With("component", "browser"),
	}
}

// command builds the Chromium command line. Sandboxing is disabled because
// the browser only ever runs inside a trusted environment.
func (l *RodLauncher) command(ctx context.Context) *launcher.Launcher {
	cmd := launcher.New().
		Context(ctx).
		Headless(l.cfg.Headless).
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-accelerated-2d-canvas").
		Set("disable-gpu").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", l.cfg.ViewportWidth, l.cfg.ViewportHeight))

	if l.cfg.Bin != "" {
		cmd = cmd.Bin(l.cfg.Bin)
	}
	return cmd
}

// Launch starts Chromium and connects to it.
func (l *RodLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := l.command(ctx)
	controlURL, err := cmd.Launch()
	if err != nil {
		cmd.Kill()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		cmd.Kill()
		cmd.Cleanup()
		return nil, fmt.Errorf("connect chromium: %w", err)
	}

	l.logger.Info("browser launched",
		"headless", l.cfg.Headless,
		"stealth", l.cfg.Stealth,
		"blocked", l.cfg.BlockResources,
	)

	return &rodSession{
		browser:  b,
		launcher: cmd,
		cfg:      l.cfg,
		logger:   l.logger,
	}, nil
}

type rodSession struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      config.BrowserConfig
	logger   *slog.Logger

	mu     sync.Mutex
	pages  []*rodPage
	closed bool

	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) NewPage(ctx context.Context) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrClosed
	}

	var (
		p   *rod.Page
		err error
	)
	if s.cfg.Stealth {
		p, err = stealth.Page(s.browser)
	} else {
		p, err = s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	err = p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.ViewportWidth,
		Height:            s.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		s.logger.Warn("failed to set viewport", "error", err)
	}

	if s.cfg.UserAgent != "" {
		err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.cfg.UserAgent})
		if err != nil {
			s.logger.Warn("failed to set user agent", "error", err)
		}
	}

	page := &rodPage{page: p, timeout: s.cfg.NavigationTimeout}
	if len(s.cfg.BlockResources) > 0 {
		page.router = s.blockResources(p)
	}

	s.pages = append(s.pages, page)
	return page, nil
}

// blockResources fails requests for the configured resource types before
// they leave the browser.
func (s *rodSession) blockResources(p *rod.Page) *rod.HijackRouter {
	router := p.HijackRequests()
	for _, name := range s.cfg.BlockResources {
		rt, ok := resourceTypes[strings.ToLower(name)]
		if !ok {
			continue
		}
		err := router.Add("*", rt, func(h *rod.Hijack) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
		if err != nil {
			s.logger.Warn("failed to block resource type", "type", name, "error", err)
		}
	}
	go router.Run()
	return router
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		pages := s.pages
		s.pages = nil
		s.mu.Unlock()

		var errs []error
		for _, p := range pages {
			if err := p.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.launcher.Kill()
		s.launcher.Cleanup()

		s.closeErr = errors.Join(errs...)
		s.logger.Info("browser closed")
	})
	return s.closeErr
}

type rodPage struct {
	page    *rod.Page
	router  *rod.HijackRouter
	timeout time.Duration
}

func (p *rodPage) Navigate(ctx context.Context, url string, wait WaitCondition) error {
	pg := p.page.Context(ctx)
	if p.timeout > 0 {
		pg = pg.Timeout(p.timeout)
		defer pg.CancelTimeout()
	}
	if err := pg.Navigate(url); err != nil {
		return err
	}
	switch wait {
	case WaitLoad:
		return pg.WaitLoad()
	default:
		return pg.WaitStable(stableWindow)
	}
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (p *rodPage) Eval(ctx context.Context, script string) (int, error) {
	res, err := p.page.Context(ctx).Eval(script)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (p *rodPage) ScrollBy(ctx context.Context, dy int) error {
	_, err := p.page.Context(ctx).Eval(scrollByJS, dy)
	return err
}

func (p *rodPage) ScrollToBottom(ctx context.Context) error {
	_, err := p.page.Context(ctx).Eval(scrollToBottomJS)
	return err
}

func (p *rodPage) Measure(ctx context.Context) (scroll.Metrics, error) {
	res, err := p.page.Context(ctx).Eval(measureJS)
	if err != nil {
		return scroll.Metrics{}, err
	}
	return scroll.Metrics{
		ScrollHeight:   res.Value.Get("height").Int(),
		ViewportBottom: res.Value.Get("bottom").Int(),
	}, nil
}

func (p *rodPage) MaxRank(ctx context.Context) (int, error) {
	return p.Eval(ctx, maxRankJS)
}

// FocusEach scrolls every match of selector into view, calling after for
// each one. Elements that detach mid-walk are skipped.
func (p *rodPage) FocusEach(ctx context.Context, selector string, after func() error) (int, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, el := range els {
		if err := el.ScrollIntoView(); err != nil {
			if ctx.Err() != nil {
				return n, ctx.Err()
			}
			continue
		}
		n++
		if err := after(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (p *rodPage) Close() error {
	if p.router != nil {
		_ = p.router.Stop()
	}
	return p.page.Close()
}
