package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for intelscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intelscan",
		Short: "Goal-driven web research with cited reports",
		Long: `intelscan researches the web for a goal and writes a cited report.

A language model plans which pages to read, a scrape service fetches them
(optionally crawling same-site links), and the model synthesizes a report
whose [source N] markers are resolved to links to the fetched pages.

The scrape service and the model are configured with a .intelscan file
(see 'intelscan init') or with the SCRAPE_API_URL, SCRAPE_API_KEY,
LLM_API, LLM_API_KEY and LLM_API_MODEL environment variables.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .intelscan in current or home directory)")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the running
// analysis.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
