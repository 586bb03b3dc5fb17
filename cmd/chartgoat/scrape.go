package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ChartGoat/internal/chart"
	"github.com/IshaanNene/ChartGoat/internal/config"
	"github.com/IshaanNene/ChartGoat/internal/observability"
	"github.com/IshaanNene/ChartGoat/internal/output"
	"github.com/IshaanNene/ChartGoat/internal/types"
)

var (
	outputPath    string
	outputFormat  string
	strategy      string
	policy        string
	maxEntries    int
	visible       bool
	useStealth    bool
	noDiagnostics bool
	metricsFile   string
)

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape <category> <country> <period>",
		Short: "Scrape one chart",
		Long:  "Load the chart for a category, country and period, scroll until the ranked rows have rendered, and print the entries.",
		Args:  cobra.ExactArgs(3),
		RunE:  runScrape,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: table, json, jsonl, csv")
	cmd.Flags().StringVar(&strategy, "strategy", "", "scroll heuristic: rank, height")
	cmd.Flags().StringVar(&policy, "policy", "", "retention policy: strict, lenient")
	cmd.Flags().IntVarP(&maxEntries, "max-entries", "m", -1, "maximum entries to keep (0 = unlimited)")
	cmd.Flags().BoolVar(&visible, "visible", false, "show the browser window")
	cmd.Flags().BoolVar(&useStealth, "stealth", false, "patch the page against automation detection")
	cmd.Flags().BoolVar(&noDiagnostics, "no-diagnostics", false, "skip the screenshot on empty results")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write run counters in Prometheus text format")

	return cmd
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	q := types.Query{Category: args[0], Country: args[1], Period: args[2]}
	if err := q.Validate(); err != nil {
		return err
	}

	progress := func(msg string) {
		fmt.Fprintf(os.Stderr, "» %s\n", msg)
	}
	scraper, err := chart.New(cfg, logger, chart.WithProgress(progress))
	if err != nil {
		return fmt.Errorf("create scraper: %w", err)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	res, err := scraper.Scrape(ctx, q)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("scrape interrupted")
		}
		return err
	}

	if err := writeResult(cfg, res); err != nil {
		return err
	}
	if metricsFile != "" {
		if err := writeMetrics(metricsFile, res.Stats); err != nil {
			logger.Warn("failed to write metrics", "path", metricsFile, "error", err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n✅ %s: %d entries in %s\n", q, len(res.Entries), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "   Rows:      %d matched, %d failed\n", res.Stats["rows_matched"], res.Stats["rows_failed"])
	fmt.Fprintf(os.Stderr, "   Entries:   %d kept, %d dropped\n", res.Stats["entries_kept"], res.Stats["entries_dropped"])
	fmt.Fprintf(os.Stderr, "   Scroll:    %d polls\n", res.Stats["scroll_polls"])
	if len(res.Warnings) > 0 {
		fmt.Fprintf(os.Stderr, "   Warnings:  %d\n", len(res.Warnings))
	}
	if res.DiagnosticPath != "" {
		fmt.Fprintf(os.Stderr, "\n💡 Nothing extracted. What the browser saw: %s\n", res.DiagnosticPath)
	}
	return nil
}

// loadConfig loads, overrides and validates configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	// Switching heuristics resets their tuning; naming the configured one
	// keeps whatever the config file set.
	if s := strings.ToLower(strategy); s != "" && s != cfg.Scroll.Strategy {
		cfg.UseStrategy(s)
	}
	if policy != "" {
		cfg.Extract.Policy = strings.ToLower(policy)
	}
	if maxEntries >= 0 {
		cfg.Extract.MaxEntries = maxEntries
	}
	if visible {
		cfg.Browser.Headless = false
	}
	if useStealth {
		cfg.Browser.Stealth = true
	}
	if noDiagnostics {
		cfg.Diagnostics.Enabled = false
	}
	if outputPath != "" {
		cfg.Output.Path = outputPath
	}
	if outputFormat != "" {
		cfg.Output.Format = strings.ToLower(outputFormat)
	}
}

func writeResult(cfg *config.Config, res *types.Result) error {
	w, err := output.New(cfg.Output.Format)
	if err != nil {
		return err
	}
	dst, err := output.Open(cfg.Output.Path)
	if err != nil {
		return err
	}
	if err := w.Write(dst, res); err != nil {
		dst.Close()
		return fmt.Errorf("write %s output: %w", w.Name(), err)
	}
	return dst.Close()
}

func writeMetrics(path string, snap map[string]int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := observability.WriteText(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
