// Package output renders scrape results for a terminal or a file.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/IshaanNene/ChartGoat/internal/types"
)

// Writer renders a result.
type Writer interface {
	// Name returns the format identifier.
	Name() string

	Write(w io.Writer, res *types.Result) error
}

// New returns the writer for a format name.
func New(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "table", "":
		return &TableWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "jsonl":
		return &JSONLWriter{}, nil
	case "csv":
		return &CSVWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Open returns the destination for path. An empty path is stdout, which is
// never closed.
func Open(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

// --- Table ---

// TableWriter prints a rounded terminal table followed by any warnings.
type TableWriter struct{}

func (TableWriter) Name() string { return "table" }

func (TableWriter) Write(w io.Writer, res *types.Result) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	if res.Query != (types.Query{}) {
		t.SetTitle(res.Query.String())
	}
	t.AppendHeader(table.Row{"#", "±", "Title", "Views", "Channel", "Subs", "Video"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 60},
		{Number: 5, WidthMax: 30},
	})

	for _, e := range res.Entries {
		t.AppendRow(table.Row{
			e.Rank,
			e.FluctuationLabel(),
			e.Title,
			e.Views,
			e.ChannelName,
			e.Subscribers,
			e.VideoURL,
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d entries", len(res.Entries))})
	t.Render()

	if res.DiagnosticPath != "" {
		if _, err := fmt.Fprintf(w, "diagnostics: %s\n", res.DiagnosticPath); err != nil {
			return err
		}
	}
	for _, warn := range res.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warn); err != nil {
			return err
		}
	}
	return nil
}

// --- JSON ---

// JSONWriter writes the whole result as one indented document.
type JSONWriter struct{}

func (JSONWriter) Name() string { return "json" }

func (JSONWriter) Write(w io.Writer, res *types.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// --- JSONL ---

// JSONLWriter writes one entry per line.
type JSONLWriter struct{}

func (JSONLWriter) Name() string { return "jsonl" }

func (JSONLWriter) Write(w io.Writer, res *types.Result) error {
	enc := json.NewEncoder(w)
	for _, e := range res.Entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode JSONL: %w", err)
		}
	}
	return nil
}

// --- CSV ---

// CSVColumns is the fixed CSV column order.
var CSVColumns = []string{
	"rank",
	"fluctuation",
	"fluctuation_value",
	"title",
	"video_url",
	"thumbnail_url",
	"views",
	"channel_name",
	"channel_url",
	"channel_image_url",
	"subscribers",
	"tags",
	"published_at",
	"is_new",
}

// CSVWriter writes a header row and one row per entry.
type CSVWriter struct{}

func (CSVWriter) Name() string { return "csv" }

func (CSVWriter) Write(w io.Writer, res *types.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	row := make([]string, len(CSVColumns))
	for _, e := range res.Entries {
		flat := e.ToFlatMap()
		for i, h := range CSVColumns {
			row[i] = flat[h]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
