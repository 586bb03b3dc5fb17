package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ChartGoat/internal/chart"
	"github.com/IshaanNene/ChartGoat/internal/diagnostics"
	"github.com/IshaanNene/ChartGoat/internal/types"
)

var pageURL string

// extractCmd creates the "extract" subcommand.
func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <snapshot>",
		Short: "Extract entries from a saved DOM snapshot",
		Long:  "Run extraction over a saved page (.html or the .html.br files written next to diagnostic screenshots) without starting a browser.",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}

	cmd.Flags().StringVar(&pageURL, "url", "https://playboard.co/", "address the snapshot was taken from, for relative links")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: table, json, jsonl, csv")
	cmd.Flags().StringVar(&policy, "policy", "", "retention policy: strict, lenient")
	cmd.Flags().IntVarP(&maxEntries, "max-entries", "m", -1, "maximum entries to keep (0 = unlimited)")

	return cmd
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	html, err := diagnostics.ReadSnapshot(args[0])
	if err != nil {
		return err
	}

	scraper, err := chart.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create scraper: %w", err)
	}

	res := scraper.ExtractSnapshot(types.Query{}, html, pageURL)
	if err := writeResult(cfg, res); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n✅ %s: %d entries (%d rows matched)\n", args[0], len(res.Entries), res.Stats["rows_matched"])
	return nil
}
