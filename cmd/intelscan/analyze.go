package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/intelscan/internal/config"
	"github.com/nao1215/intelscan/internal/model"
	"github.com/nao1215/intelscan/internal/pipeline"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [goal]",
		Short: "Research a goal and write a cited report",
		Long: `Analyze runs the full pipeline for a free-text research goal.

The language model plans which URLs to read and whether to crawl them,
the scrape service fetches the pages, and the model writes a report whose
[source N] markers are turned into links to the fetched pages.

Examples:
  # Research a single goal
  intelscan analyze "What changed in the latest PostgreSQL release?"

  # Research one goal per line of a file, three at a time
  intelscan analyze -g goals.txt -b 3 -o reports/

  # Write a Markdown report in Japanese
  intelscan analyze -f md -l ja -o report.md "Rust async runtimes compared"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().StringP("goals-file", "g", "",
		"File with one goal per line (lines starting with # are ignored)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of goals analyzed concurrently")
	cmd.Flags().Int("crawl-limit", config.DefaultCrawlLimit, crawlLimitFlagUsage)
	addReportFlags(cmd)

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	goals, err := collectGoals(cmd, args)
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
	if err := a.cfg.RequireLLM(); err != nil {
		return err
	}

	if len(goals) == 1 {
		return runSingleAnalysis(cmd, a, goals[0], format, output)
	}
	return runBatchAnalysis(cmd, a, goals, format, output)
}

// collectGoals returns the goal argument or the goals listed in the
// --goals-file flag.
func collectGoals(cmd *cobra.Command, args []string) ([]string, error) {
	goalsFile, err := cmd.Flags().GetString("goals-file")
	if err != nil {
		return nil, err
	}

	var goals []string
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		goals = append(goals, strings.TrimSpace(args[0]))
	}
	if goalsFile != "" {
		fromFile, err := readGoalsFile(goalsFile)
		if err != nil {
			return nil, err
		}
		goals = append(goals, fromFile...)
	}

	if len(goals) == 0 {
		return nil, errors.New("no goal provided (pass a goal argument or --goals-file)")
	}
	return goals, nil
}

// readGoalsFile reads one goal per non-empty line. Lines starting with #
// are comments.
func readGoalsFile(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open goals file: %w", err)
	}
	defer f.Close()

	var goals []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		goals = append(goals, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read goals file: %w", err)
	}
	return goals, nil
}

// runSingleAnalysis analyzes one goal and writes its report. The report
// is written even when the analysis fails, so the failure is visible.
func runSingleAnalysis(cmd *cobra.Command, a *app, goal, format, output string) error {
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Analyzing %q...\n", goal)
	startTime := time.Now()

	analysis, runErr := a.controller.Auto(cmd.Context(), goal)
	fmt.Fprintf(out, "Analysis finished in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	if err := writeAnalysis(cmd, analysis, format, output); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return fmt.Errorf("analysis %s failed: %w", analysis.ID, runErr)
	}
	return nil
}

// runBatchAnalysis analyzes goals concurrently using BatchProcessor.
// With --output, the flag names a directory that receives one report per
// goal.
func runBatchAnalysis(cmd *cobra.Command, a *app, goals []string, format, output string) error {
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Starting batch analysis of %d goals (concurrency: %d)...\n\n",
		len(goals), a.cfg.BatchSize)
	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func(ctx context.Context, goal string) (*model.Analysis, error) {
			return a.controller.Auto(ctx, goal)
		},
		pipeline.WithConcurrency(a.cfg.BatchSize),
		pipeline.WithBatchLogger(a.logger),
	)

	// Callbacks run concurrently; output is serialized.
	var mu sync.Mutex
	failed := 0
	err := bp.ProcessBatchWithCallback(cmd.Context(), goals, func(analysis *model.Analysis, index int) {
		mu.Lock()
		defer mu.Unlock()

		status := "completed"
		if !analysis.Succeeded() {
			status = "failed"
			failed++
		}
		fmt.Fprintf(out, "[%d/%d] Analysis %s: %s\n", index+1, len(goals), status, goals[index])

		target := output
		if output != "" {
			target = filepath.Join(output, analysisFileName(analysis, format))
		}
		if err := writeAnalysis(cmd, analysis, format, target); err != nil {
			a.logger.Error("report failed", "analysis", analysis.ID, "error", err)
		}
	})

	fmt.Fprintf(out, "\nBatch analysis finished in %s\n", time.Since(startTime).Round(time.Millisecond))
	if err != nil {
		return fmt.Errorf("batch analysis interrupted: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(goals))
	}
	return nil
}
