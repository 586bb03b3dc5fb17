package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/ChartGoat/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chartgoat",
		Short: "ChartGoat — ranked video chart scraper",
		Long: `ChartGoat renders a playboard.co video chart in headless Chromium,
scrolls until the lazily loaded rows have appeared, and extracts one entry
per ranked video.

Examples:
  chartgoat scrape short south-korea daily
  chartgoat scrape all-videos united-states weekly -f csv -o top.csv
  chartgoat extract diagnostics/no-entries-20261015T093000.000Z.html.br`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ChartGoat %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Key", "Value"})
			t.AppendRows([]table.Row{
				{"browser.headless", cfg.Browser.Headless},
				{"browser.bin", cfg.Browser.Bin},
				{"browser.stealth", cfg.Browser.Stealth},
				{"browser.user_agent", cfg.Browser.UserAgent},
				{"browser.viewport", fmt.Sprintf("%dx%d", cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)},
				{"browser.navigation_timeout", cfg.Browser.NavigationTimeout},
				{"browser.settle_delay", cfg.Browser.SettleDelay},
				{"browser.block_resources", strings.Join(cfg.Browser.BlockResources, ",")},
			})
			t.AppendSeparator()
			t.AppendRows([]table.Row{
				{"chart.url_template", cfg.Chart.URLTemplate},
				{"chart.watch_base", cfg.Chart.WatchBase},
				{"chart.channel_base", cfg.Chart.ChannelBase},
			})
			t.AppendSeparator()
			t.AppendRows([]table.Row{
				{"scroll.strategy", cfg.Scroll.Strategy},
				{"scroll.interval", cfg.Scroll.Interval},
				{"scroll.target_rank", cfg.Scroll.TargetRank},
				{"scroll.stall_limit", cfg.Scroll.StallLimit},
				{"scroll.max_polls", cfg.Scroll.MaxPolls},
				{"scroll.step", cfg.Scroll.Step},
				{"scroll.cooldown", cfg.Scroll.Cooldown},
				{"scroll.focus_images", cfg.Scroll.FocusImages},
			})
			t.AppendSeparator()
			t.AppendRows([]table.Row{
				{"extract.policy", cfg.Extract.Policy},
				{"extract.max_entries", cfg.Extract.MaxEntries},
				{"diagnostics.enabled", cfg.Diagnostics.Enabled},
				{"diagnostics.dir", cfg.Diagnostics.Dir},
				{"output.format", cfg.Output.Format},
				{"output.path", cfg.Output.Path},
				{"logging.level", cfg.Logging.Level},
				{"logging.format", cfg.Logging.Format},
			})
			t.Render()
			return nil
		},
	}
}

// setupLogger creates a structured logger on stderr. --verbose wins over
// the configured level.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
