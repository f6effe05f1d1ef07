package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/intelscan/internal/config"
	"github.com/nao1215/intelscan/internal/model"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>...",
		Short: "Fetch the given URLs and the same-site pages they link to",
		Long: `Crawl fetches the given seed URLs, extracts the links of each seed,
and fetches up to --crawl-limit same-site links per seed.

Links are followed one level deep. Pages are grouped by the seed that
discovered them.

Examples:
  # Crawl a documentation landing page
  intelscan crawl https://docs.example.com

  # Follow up to ten links and summarize what was found
  intelscan crawl --crawl-limit 10 --goal "Summarize the API surface" \
    https://docs.example.com/api`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManualCmd(cmd, args, model.ModeCrawl)
		},
	}

	cmd.Flags().String("goal", "", "Research goal; enables report synthesis")
	cmd.Flags().Int("crawl-limit", config.DefaultCrawlLimit, crawlLimitFlagUsage)
	addReportFlags(cmd)

	return cmd
}
