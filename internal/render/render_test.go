package render

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/intelscan/internal/model"
)

func TestToHTML(t *testing.T) {
	t.Parallel()

	t.Run("renders headings and tables", func(t *testing.T) {
		t.Parallel()

		md := "# Summary\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"
		out, err := ToHTML(md)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `<h1 id="summary">Summary</h1>`) {
			t.Errorf("expected heading in output, got %q", out)
		}
		if !strings.Contains(out, "<table>") {
			t.Errorf("expected GFM table in output, got %q", out)
		}
	})

	t.Run("raw html is omitted", func(t *testing.T) {
		t.Parallel()

		out, err := ToHTML("<script>alert(1)</script>\n\ntext")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out, "<script>") {
			t.Errorf("expected script to be omitted, got %q", out)
		}
	})
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	out := Sanitize(`<p onclick="steal()">hello</p><script>alert(1)</script>`)
	if strings.Contains(out, "onclick") || strings.Contains(out, "script") {
		t.Errorf("expected unsafe markup to be removed, got %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected text to survive, got %q", out)
	}
}

func TestSafeHTML(t *testing.T) {
	t.Parallel()

	out, err := SafeHTML("see [site](https://example.com)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `rel="nofollow`) {
		t.Errorf("expected nofollow on links, got %q", out)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	t.Run("counts structural elements", func(t *testing.T) {
		t.Parallel()

		md := "# Title\n\nHello [link](https://a.com) world.\n\n- one\n- two\n\n![img](x.png)\n"
		got := Stats(md, "https://News.Example.com/path")
		want := model.PageStats{
			WordCount:      10,
			ParagraphCount: 2,
			HeadingCount:   1,
			ListItemCount:  2,
			LinkCount:      1,
			ImageCount:     1,
			Domain:         "news.example.com",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("stats mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("autolinks are counted", func(t *testing.T) {
		t.Parallel()

		got := Stats("visit <https://example.com> now", "")
		if got.LinkCount != 1 {
			t.Errorf("expected 1 link, got %d", got.LinkCount)
		}
		if got.Domain != "" {
			t.Errorf("expected empty domain, got %q", got.Domain)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		got := Stats("", "https://a.com")
		if got.WordCount != 0 || got.ParagraphCount != 0 {
			t.Errorf("expected zero counts, got %+v", got)
		}
	})
}

func TestPageStats(t *testing.T) {
	t.Parallel()

	if got := PageStats(model.NewErrorRecord("https://a.com", "boom")); got != nil {
		t.Errorf("expected nil stats for failed record, got %+v", got)
	}
	got := PageStats(model.PageRecord{URL: "https://a.com", RawMarkdown: "one two"})
	if got == nil || got.WordCount != 2 {
		t.Errorf("expected word count 2, got %+v", got)
	}
}

func TestExtractMetadata(t *testing.T) {
	t.Parallel()

	t.Run("reads head", func(t *testing.T) {
		t.Parallel()

		html := `<html lang="de"><head><title> Seite </title>
<meta name="description" content="Beschreibung"></head><body></body></html>`
		got, err := ExtractMetadata(html)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := Metadata{Title: "Seite", Description: "Beschreibung", Language: "de"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("metadata mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("og description fallback", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><meta property="og:description" content="from og"></head></html>`
		got, err := ExtractMetadata(html)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Description != "from og" {
			t.Errorf("expected og description, got %q", got.Description)
		}
		if got.Title != "" {
			t.Errorf("expected empty title, got %q", got.Title)
		}
	})
}

func TestHTMLToMarkdown(t *testing.T) {
	t.Parallel()

	html := `<h1>Title</h1><p>See <a href="/about">about</a></p>`
	md, err := HTMLToMarkdown(html, "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(md, "# Title") {
		t.Errorf("expected heading, got %q", md)
	}
	if !strings.Contains(md, "(https://example.com/about)") {
		t.Errorf("expected absolute link, got %q", md)
	}
}
