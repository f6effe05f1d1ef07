package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultTemplates(t *testing.T) {
	t.Parallel()

	tmpl := Default()

	t.Run("plan substitutes goal and date", func(t *testing.T) {
		t.Parallel()

		out, err := tmpl.Plan(PlanData{Goal: "Tell me about Apache Kafka", Date: "2025-03-01"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Tell me about Apache Kafka", "2025-03-01", `"crawl"`, `"scrape"`, "1 to 5"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected plan prompt to contain %q", want)
			}
		}
	})

	t.Run("plan rendering is deterministic", func(t *testing.T) {
		t.Parallel()

		data := PlanData{Goal: "x", Date: "2025-01-01"}
		a, _ := tmpl.Plan(data)
		b, _ := tmpl.Plan(data)
		if a != b {
			t.Error("expected identical output for identical input")
		}
	})

	t.Run("synthesis includes language and documents", func(t *testing.T) {
		t.Parallel()

		out, err := tmpl.Synthesis(SynthesisData{
			Goal:        "goal",
			Date:        "2025-01-01",
			Language:    "Japanese",
			SourceCount: 2,
			Documents:   "--- SOURCE 1 ---\nbody",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Japanese", "--- SOURCE 1 ---", "[source N]", "2 source documents"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected synthesis prompt to contain %q", want)
			}
		}
	})

	t.Run("answer wraps markdown", func(t *testing.T) {
		t.Parallel()

		out, err := tmpl.Answer(AnswerData{Markdown: "# Page", Question: "Summarize"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "<markdown>\n# Page\n</markdown>") {
			t.Errorf("expected markdown to be wrapped, got %q", out)
		}
		if !strings.Contains(out, "Summarize") {
			t.Error("expected question in prompt")
		}
	})
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	t.Run("file in directory replaces embedded template", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, PlanFile), []byte("custom {{.Goal}}"), 0o600); err != nil {
			t.Fatalf("failed to write template: %v", err)
		}

		tmpl, err := Load(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out, err := tmpl.Plan(PlanData{Goal: "g"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "custom g" {
			t.Errorf("expected overridden template, got %q", out)
		}

		// Templates without an override keep the embedded text.
		answer, err := tmpl.Answer(AnswerData{Markdown: "m", Question: "q"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(answer, "<markdown>") {
			t.Error("expected embedded answer template")
		}
	})

	t.Run("invalid override is rejected", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, SynthesisFile), []byte("{{.Goal"), 0o600); err != nil {
			t.Fatalf("failed to write template: %v", err)
		}
		if _, err := Load(dir); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("unknown field fails at render time", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, PlanFile), []byte("{{.Nope}}"), 0o600); err != nil {
			t.Fatalf("failed to write template: %v", err)
		}
		tmpl, err := Load(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := tmpl.Plan(PlanData{}); err == nil {
			t.Error("expected render error for unknown field")
		}
	})
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	got := FormatDate(time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC))
	if got != "2025-03-09" {
		t.Errorf("expected 2025-03-09, got %s", got)
	}
}
