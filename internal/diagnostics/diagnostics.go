// Package diagnostics saves what the browser saw when a scrape came back
// empty: a full-page screenshot and a compressed DOM snapshot that the
// extract command can replay offline.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// SnapshotExt is the extension of compressed DOM snapshots.
const SnapshotExt = ".html.br"

// Source is the part of a browser page diagnostics needs.
type Source interface {
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
}

// Artifacts lists the files one capture produced.
type Artifacts struct {
	Screenshot string
	Snapshot   string
}

// Capturer writes diagnostic artifacts into a directory.
type Capturer struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Capturer writing into dir.
func New(dir string, logger *slog.Logger) *Capturer {
	return &Capturer{
		dir:    dir,
		now:    time.Now,
		logger: logger.With("component", "diagnostics"),
	}
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Capture saves a screenshot and a DOM snapshot of src. It keeps going
// after a failed artifact; the returned error joins every failure.
func (c *Capturer) Capture(ctx context.Context, src Source, reason string) (*Artifacts, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return &Artifacts{}, fmt.Errorf("create diagnostics dir: %w", err)
	}

	reason = strings.Trim(unsafeName.ReplaceAllString(reason, "-"), "-")
	if reason == "" {
		reason = "capture"
	}
	base := filepath.Join(c.dir, fmt.Sprintf("%s-%s", reason, c.now().UTC().Format("20060102T150405.000Z")))

	out := &Artifacts{}
	var errs []error

	if png, err := src.Screenshot(ctx); err != nil {
		errs = append(errs, fmt.Errorf("screenshot: %w", err))
	} else if err := os.WriteFile(base+".png", png, 0o644); err != nil {
		errs = append(errs, fmt.Errorf("write screenshot: %w", err))
	} else {
		out.Screenshot = base + ".png"
	}

	if html, err := src.HTML(ctx); err != nil {
		errs = append(errs, fmt.Errorf("snapshot: %w", err))
	} else if err := WriteSnapshot(base+SnapshotExt, html); err != nil {
		errs = append(errs, err)
	} else {
		out.Snapshot = base + SnapshotExt
	}

	c.logger.Info("diagnostics captured",
		"screenshot", out.Screenshot,
		"snapshot", out.Snapshot,
		"failures", len(errs),
	)
	return out, errors.Join(errs...)
}

// WriteSnapshot stores html brotli-compressed at path.
func WriteSnapshot(path, html string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	w := brotli.NewWriterLevel(f, brotli.DefaultCompression)
	if _, err := io.WriteString(w, html); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	return f.Close()
}

// ReadSnapshot loads a DOM snapshot. Files ending in .br are decompressed;
// anything else is read as plain HTML.
func ReadSnapshot(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".br") {
		r = brotli.NewReader(f)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return string(data), nil
}
