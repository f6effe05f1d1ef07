package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/intelscan/internal/database"
)

// maxDocumentSize limits how much of --file is read.
const maxDocumentSize = 16 * 1024 * 1024

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about a Markdown document or a past report",
		Long: `Ask sends a question together with a Markdown document to the
language model and prints the answer.

The document is read from --file ("-" reads standard input) or taken
from the report of a recorded analysis with --analysis.

Examples:
  # Ask about a saved page
  intelscan ask -F page.md "Who maintains this project?"

  # Ask a follow-up question about an earlier report
  intelscan ask --analysis 3f2a... "Which source is the most recent?"

  # Pipe a document in
  curl -s https://example.com/README.md | intelscan ask -F - "What does it install?"`,
		Args: cobra.ExactArgs(1),
		RunE: runAskCmd,
	}

	cmd.Flags().StringP("file", "F", "", `Markdown document to ask about ("-" for stdin)`)
	cmd.Flags().String("analysis", "", "ID of a recorded analysis whose report is the document")
	cmd.Flags().StringP("language", "l", "", "Answer language as a BCP 47 tag")
	cmd.MarkFlagsMutuallyExclusive("file", "analysis")
	cmd.MarkFlagsOneRequired("file", "analysis")

	return cmd
}

// runAskCmd executes the ask command.
func runAskCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cfg.RequireLLM(); err != nil {
		return err
	}

	markdown, err := loadDocument(cmd, a)
	if err != nil {
		return err
	}

	answer, err := a.synthesizer.Answer(cmd.Context(), markdown, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(answer))
	return nil
}

// loadDocument returns the Markdown selected by --file or --analysis.
func loadDocument(cmd *cobra.Command, a *app) (string, error) {
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return "", err
	}
	if path != "" {
		return readDocument(cmd, path)
	}

	id, err := cmd.Flags().GetString("analysis")
	if err != nil {
		return "", err
	}

	db, err := database.Open(a.cfg.DBDir, database.Options{})
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	analysis, err := db.GetAnalysis(cmd.Context(), id)
	if err != nil {
		return "", err
	}
	if analysis.Report == nil || analysis.Report.Markdown == "" {
		return "", fmt.Errorf("analysis %s has no report", id)
	}
	return analysis.Report.Markdown, nil
}

// readDocument reads path, or cmd's standard input when path is "-".
func readDocument(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return "", fmt.Errorf("failed to open document: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize))
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("document is empty")
	}
	return string(data), nil
}
