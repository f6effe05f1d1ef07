package main

import (
	"testing"

	"github.com/spf13/cobra"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "intelscan" {
			t.Errorf("expected use 'intelscan', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := []string{"analyze", "scrape", "crawl", "ask", "serve", "history", "init", "version"}
		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, name := range want {
			if !names[name] {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

// TestReportFlags tests that every report-producing command shares the
// same output flags.
func TestReportFlags(t *testing.T) {
	t.Parallel()

	for _, cmd := range []struct {
		name string
		new  func() *cobra.Command
	}{
		{name: "analyze", new: NewAnalyzeCmd},
		{name: "scrape", new: NewScrapeCmd},
		{name: "crawl", new: NewCrawlCmd},
	} {
		t.Run(cmd.name, func(t *testing.T) {
			t.Parallel()
			c := cmd.new()
			for _, name := range []string{"format", "output", "no-save", "language", "proxy"} {
				if c.Flags().Lookup(name) == nil {
					t.Errorf("expected %s flag", name)
				}
			}
			if got := c.Flags().Lookup("format").DefValue; got != "text" {
				t.Errorf("expected default format 'text', got %q", got)
			}
		})
	}

	t.Run("crawl has crawl-limit", func(t *testing.T) {
		t.Parallel()
		flag := NewCrawlCmd().Flags().Lookup("crawl-limit")
		if flag == nil {
			t.Fatal("expected crawl-limit flag")
		}
		if flag.DefValue != "5" {
			t.Errorf("expected default '5', got %q", flag.DefValue)
		}
	})
}
