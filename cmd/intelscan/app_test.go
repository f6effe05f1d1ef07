package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/nao1215/intelscan/internal/config"
	"github.com/nao1215/intelscan/internal/model"
)

// newFlagCmd returns a crawl command with the persistent root flags
// attached, parsed from args.
func newFlagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	cmd := NewCrawlCmd()
	cmd.Flags().StringP("config", "c", "", "")
	cmd.Flags().BoolP("verbose", "v", false, "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd
}

func TestBuildConfig(t *testing.T) {
	for _, name := range []string{config.EnvLanguage, config.EnvProxy} {
		t.Setenv(name, "")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "language: de\ncrawl:\n  limit: 3\ndatabase:\n  dir: /tmp/intelscan-test\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Run("file values apply when flags are unset", func(t *testing.T) {
		cfg, err := buildConfig(newFlagCmd(t, "--config", path))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Language != "de" || cfg.CrawlLimit != 3 {
			t.Errorf("expected file values, got language=%q limit=%d", cfg.Language, cfg.CrawlLimit)
		}
		if !cfg.SaveToDB {
			t.Error("expected saving to be enabled")
		}
	})

	t.Run("flags override the file", func(t *testing.T) {
		cfg, err := buildConfig(newFlagCmd(t,
			"--config", path, "--crawl-limit", "9", "-l", "ja", "--no-save", "-v"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := []any{cfg.Language, cfg.CrawlLimit, cfg.SaveToDB, cfg.Verbose}
		want := []any{"ja", 9, false, true}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid flag value fails validation", func(t *testing.T) {
		_, err := buildConfig(newFlagCmd(t, "--config", path, "--crawl-limit", "0"))
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "configuration error") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestReadGoalsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "goals.txt")
	content := "# research backlog\nWhat is Kafka?\n\n  Compare Pulsar and Kafka  \n# done\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write goals: %v", err)
	}

	got, err := readGoalsFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"What is Kafka?", "Compare Pulsar and Kafka"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("goals mismatch (-want +got):\n%s", diff)
	}

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		if _, err := readGoalsFile(filepath.Join(t.TempDir(), "none.txt")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestCollectGoals(t *testing.T) {
	t.Parallel()

	t.Run("argument", func(t *testing.T) {
		t.Parallel()
		got, err := collectGoals(NewAnalyzeCmd(), []string{"  What is Kafka?  "})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"What is Kafka?"}, got); diff != "" {
			t.Errorf("goals mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no goal", func(t *testing.T) {
		t.Parallel()
		if _, err := collectGoals(NewAnalyzeCmd(), []string{"   "}); err == nil {
			t.Error("expected error without a goal")
		}
	})
}

func TestWriteAnalysis(t *testing.T) {
	t.Parallel()

	analysis := model.NewManualAnalysis([]string{"https://example.com"}, model.ModeScrape, "")
	analysis.Pages = []model.PageRecord{{URL: "https://example.com", Title: "Example", RawMarkdown: "# Example"}}
	analysis.Finish()

	t.Run("stdout", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		cmd := NewScrapeCmd()
		cmd.SetOut(&buf)
		if err := writeAnalysis(cmd, analysis, "md", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "# Intelligence Report") {
			t.Errorf("expected Markdown report, got:\n%s", buf.String())
		}
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		var stderr bytes.Buffer
		cmd := NewScrapeCmd()
		cmd.SetErr(&stderr)

		output := filepath.Join(t.TempDir(), "nested", "report.html")
		if err := writeAnalysis(cmd, analysis, "html", output); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(data), "<html") {
			t.Error("expected HTML document")
		}
		if !strings.Contains(stderr.String(), output) {
			t.Errorf("expected output path in message, got %q", stderr.String())
		}
		if runtime.GOOS != "windows" {
			info, err := os.Stat(output)
			if err != nil {
				t.Fatalf("failed to stat report: %v", err)
			}
			if perm := info.Mode().Perm(); perm != 0600 {
				t.Errorf("expected permissions 0600, got %o", perm)
			}
		}
	})

	t.Run("batch file name", func(t *testing.T) {
		t.Parallel()
		want := "intelscan-" + analysis.ID + ".json"
		if got := analysisFileName(analysis, "json"); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestTruncateTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "a much longer title", max: 10, want: "a much ..."},
		{in: "日本語のタイトルです", max: 6, want: "日本語..."},
	}
	for _, tt := range tests {
		if got := truncateTitle(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateTitle(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
