package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/intelscan/internal/model"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape <url>...",
		Short: "Fetch the given URLs and optionally report on them",
		Long: `Scrape fetches the given URLs through the scrape service.

Without --goal the command lists the fetched pages and their statistics.
With --goal the pages are also synthesized into a cited report.

Examples:
  # Fetch two pages
  intelscan scrape https://go.dev/blog https://go.dev/doc

  # Fetch pages and compare them
  intelscan scrape --goal "Compare the two release notes" \
    https://example.com/v1 https://example.com/v2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManualCmd(cmd, args, model.ModeScrape)
		},
	}

	cmd.Flags().String("goal", "", "Research goal; enables report synthesis")
	addReportFlags(cmd)

	return cmd
}

// runManualCmd runs a URL-driven analysis in mode and writes its report.
// It is shared by the scrape and crawl commands.
func runManualCmd(cmd *cobra.Command, urls []string, mode model.FetchMode) error {
	goal, err := cmd.Flags().GetString("goal")
	if err != nil {
		return err
	}

	format, output, err := reportFlags(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cfg.RequireScrape(); err != nil {
		return err
	}
	if goal != "" {
		if err := a.cfg.RequireLLM(); err != nil {
			return err
		}
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Fetching %d URL(s) in %s mode...\n", len(urls), mode)
	startTime := time.Now()

	analysis, runErr := a.controller.Manual(cmd.Context(), urls, mode, goal)
	fmt.Fprintf(out, "Analysis finished in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	if err := writeAnalysis(cmd, analysis, format, output); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return fmt.Errorf("analysis %s failed: %w", analysis.ID, runErr)
	}
	return nil
}
