package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/intelscan/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new intelscan configuration file",
		Long: `Initialize creates a new .intelscan configuration file in the current directory.

The generated file documents every setting:
- Scrape service URL, API key and timeout
- Language model endpoint, API key and model
- Report language, crawl limit and proxy
- HTTP API and database settings

Examples:
  # Create .intelscan in current directory
  intelscan init

  # Create config file at a specific path
  intelscan init -o ~/.config/intelscan/config.yaml

  # Force overwrite existing file
  intelscan init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file holds API keys once edited.
	if err := os.WriteFile(outputPath, config.Template, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - The scrape service URL and API key")
	fmt.Fprintln(out, "  - The language model endpoint, API key and model")
	fmt.Fprintln(out, "  - The report language and crawl limit")

	return nil
}
