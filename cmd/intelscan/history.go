package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/intelscan/internal/database"
	"github.com/nao1215/intelscan/internal/report"
)

// historyDateFormat is the timestamp layout of history listings.
const historyDateFormat = "2006-01-02 15:04"

// NewHistoryCmd creates the history command.
// This command inspects the analyses recorded in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show, export or delete recorded analyses",
		Long: `History inspects the analyses recorded by analyze, scrape, crawl and serve.

Without flags the most recent analyses are listed. The other flags select
a single analysis by ID (see the listing) or a single URL.

Examples:
  # List the 20 most recent analyses
  intelscan history

  # Print a recorded analysis
  intelscan history --show 3f2a...

  # Export a recorded analysis as HTML
  intelscan history --export 3f2a... -f html -o report.html

  # Show how a page changed across analyses
  intelscan history --url https://example.com/pricing

  # Delete a recorded analysis
  intelscan history --delete 3f2a...`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of analyses to list (0 lists all)")
	cmd.Flags().String("show", "", "Print the analysis with this ID")
	cmd.Flags().String("export", "", "Export the analysis with this ID")
	cmd.Flags().String("delete", "", "Delete the analysis with this ID")
	cmd.Flags().String("url", "", "Show the fetch history of this URL")
	cmd.Flags().BoolP("json", "j", false, "Print listings as JSON")
	cmd.Flags().StringP("format", "f", report.FormatText,
		"Report format for --show and --export: text, md, json or html")
	cmd.Flags().StringP("output", "o", "", "Write the exported report to this file")
	cmd.MarkFlagsMutuallyExclusive("show", "export", "delete", "url")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	if id, _ := cmd.Flags().GetString("delete"); id != "" {
		if err := db.DeleteAnalysis(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted analysis %s\n", id)
		return nil
	}

	if pageURL, _ := cmd.Flags().GetString("url"); pageURL != "" {
		return printPageHistory(ctx, out, db, pageURL, asJSON)
	}

	show, _ := cmd.Flags().GetString("show")
	export, _ := cmd.Flags().GetString("export")
	if id := show + export; id != "" {
		format, output, err := reportFlags(cmd)
		if err != nil {
			return err
		}
		if show != "" {
			output = ""
		}
		analysis, err := db.GetAnalysis(ctx, id)
		if err != nil {
			return err
		}
		return writeAnalysis(cmd, analysis, format, output)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	return printAnalyses(ctx, out, db, limit, asJSON)
}

// printAnalyses lists the most recent analyses.
func printAnalyses(ctx context.Context, out io.Writer, db *database.AnalysisDB, limit int, asJSON bool) error {
	analyses, err := db.ListAnalyses(ctx, limit)
	if err != nil {
		return err
	}

	if asJSON {
		return writeIndentedJSON(out, analyses)
	}

	if len(analyses) == 0 {
		fmt.Fprintln(out, "No analyses found in the database.")
		fmt.Fprintln(out, "\nUse 'intelscan analyze <goal>' to run an analysis.")
		return nil
	}

	fmt.Fprintf(out, "Recorded analyses (%d):\n\n", len(analyses))
	fmt.Fprintf(out, "  %-36s  %-16s  %-6s  %-6s  %-5s  %s\n", "ID", "Date", "Kind", "Mode", "Pages", "Title")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 100))
	for _, a := range analyses {
		status := ""
		if !a.Succeeded {
			status = " (failed)"
		}
		fmt.Fprintf(out, "  %-36s  %-16s  %-6s  %-6s  %-5d  %s%s\n",
			a.ID,
			a.CreatedAt.Local().Format(historyDateFormat),
			a.Kind,
			a.FetchMode,
			a.PageCount,
			truncateTitle(a.Title, 60),
			status,
		)
	}
	fmt.Fprintln(out, "\nUse 'intelscan history --show <id>' to print an analysis.")
	return nil
}

// printPageHistory lists every recorded fetch of pageURL.
func printPageHistory(ctx context.Context, out io.Writer, db *database.AnalysisDB, pageURL string, asJSON bool) error {
	snapshots, err := db.PageHistory(ctx, pageURL)
	if err != nil {
		return err
	}

	if asJSON {
		return writeIndentedJSON(out, snapshots)
	}

	if len(snapshots) == 0 {
		fmt.Fprintf(out, "No fetch history found for %s\n", pageURL)
		return nil
	}

	fmt.Fprintf(out, "Fetch history for %s (%d fetches):\n\n", pageURL, len(snapshots))
	fmt.Fprintf(out, "  %-16s  %-9s  %-36s  %s\n", "Date", "Content", "Analysis", "Title")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))
	for _, s := range snapshots {
		content := "same"
		switch {
		case s.Error != "":
			content = "failed"
		case s.Changed:
			content = "changed"
		}
		fmt.Fprintf(out, "  %-16s  %-9s  %-36s  %s\n",
			s.FetchedAt.Local().Format(historyDateFormat),
			content,
			s.AnalysisID,
			truncateTitle(s.Title, 50),
		)
	}
	return nil
}

// writeIndentedJSON writes v as indented JSON.
func writeIndentedJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// truncateTitle shortens s to at most maxLen runes.
func truncateTitle(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
