// Package browser owns the headless Chromium session used to render chart
// pages. Callers program against the Launcher, Session and Page interfaces;
// the rod-backed implementation lives in rod.go.
package browser

import (
	"context"
	"time"

	"github.com/IshaanNene/ChartGoat/internal/scroll"
)

// WaitCondition selects what Navigate waits for after the load starts.
type WaitCondition int

const (
	// WaitStable waits until the DOM and network stop changing.
	WaitStable WaitCondition = iota
	// WaitLoad waits only for the window load event.
	WaitLoad
)

func (w WaitCondition) String() string {
	switch w {
	case WaitStable:
		return "stable"
	case WaitLoad:
		return "load"
	default:
		return "unknown"
	}
}

// Page is one browser tab.
type Page interface {
	scroll.Viewport
	scroll.Focuser

	Navigate(ctx context.Context, url string, wait WaitCondition) error
	HTML(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	// Eval runs a script of the form "() => number" and returns its result.
	Eval(ctx context.Context, script string) (int, error)
}

// Session is a running browser.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	// Close tears down every page, the browser and its process. Calling it
	// more than once is safe; only the first call does any work.
	Close() error
}

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// stableWindow is how long the page must stay quiet for WaitStable.
const stableWindow = 500 * time.Millisecond
