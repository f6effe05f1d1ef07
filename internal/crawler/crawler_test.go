package crawler

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRegistrableDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		want string
	}{
		{host: "example.com", want: "example.com"},
		{host: "www.example.com", want: "example.com"},
		{host: "a.b.example.com", want: "example.com"},
		{host: "www.bbc.co.uk", want: "bbc.co.uk"},
		{host: "shop.example.com.au", want: "example.com.au"},
		{host: "news.example.ac.jp", want: "example.ac.jp"},
		{host: "WWW.Example.COM.", want: "example.com"},
		{host: "example.de", want: "example.de"},
		{host: "www.example.io", want: "example.io"},
		{host: "localhost", want: "localhost"},
		{host: "127.0.0.1", want: "127.0.0.1"},
		{host: "example.com:8080", want: "example.com"},
		// Known limitation of the heuristic: multi-part suffixes outside the
		// generic second-level list collapse onto the suffix.
		{host: "alice.github.io", want: "github.io"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			if got := RegistrableDomain(tt.host); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	t.Run("SameSite", func(t *testing.T) {
		t.Parallel()
		if !SameSite("blog.example.com", "example.com") {
			t.Error("expected subdomain to be same site")
		}
		if SameSite("example.com", "example.org") {
			t.Error("expected different TLDs to be different sites")
		}
	})
}

func TestParser(t *testing.T) {
	t.Parallel()

	t.Run("extracts title", func(t *testing.T) {
		t.Parallel()

		doc := `<html><head><title> Test Page </title></head><body></body></html>`
		parser, err := NewParser("https://example.com/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}
		result, err := parser.Parse(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if result.Title != "Test Page" {
			t.Errorf("expected title 'Test Page', got %q", result.Title)
		}
	})

	t.Run("classifies links by registrable domain", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body>
			<a href="/internal">Internal</a>
			<a href="https://blog.example.com/post">Subdomain</a>
			<a href="https://other.org/">External</a>
			<a href="mailto:someone@example.com">Mail</a>
			<a href="javascript:void(0)">JS</a>
			<a href="#top">Top</a>
			<a href="ftp://example.com/file">FTP</a>
		</body></html>`

		parser, err := NewParser("https://www.example.com/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}
		result, err := parser.Parse(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		wantInternal := []string{"https://www.example.com/internal", "https://blog.example.com/post"}
		if diff := cmp.Diff(wantInternal, result.InternalLinks); diff != "" {
			t.Errorf("internal links mismatch (-want +got):\n%s", diff)
		}
		wantExternal := []string{"https://other.org/"}
		if diff := cmp.Diff(wantExternal, result.ExternalLinks); diff != "" {
			t.Errorf("external links mismatch (-want +got):\n%s", diff)
		}
		if len(result.Links) != 3 {
			t.Errorf("expected 3 links, got %d", len(result.Links))
		}
	})

	t.Run("honors base element", func(t *testing.T) {
		t.Parallel()

		doc := `<html><head><base href="https://example.com/docs/"></head>
			<body><a href="intro">Intro</a></body></html>`
		parser, err := NewParser("https://example.com/index.html")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}
		result, err := parser.Parse(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if diff := cmp.Diff([]string{"https://example.com/docs/intro"}, result.Links); diff != "" {
			t.Errorf("links mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	t.Run("keeps same-site links without fragments", func(t *testing.T) {
		t.Parallel()

		doc := `<a href="/a#section">A</a>
			<a href="/b">B</a>
			<a href="https://example.com/a">A again</a>
			<a href="https://elsewhere.net/x">X</a>
			<a href="https://example.com/">Self</a>
			<a href="#">Hash</a>`

		got := ExtractLinks(doc, "https://example.com/", 10)
		want := []string{"https://example.com/a", "https://example.com/b"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("links mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("self link without trailing slash is discarded", func(t *testing.T) {
		t.Parallel()

		doc := `<a href="https://example.com">Home</a><a href="/about">About</a>`
		got := ExtractLinks(doc, "https://example.com/#intro", 10)
		if diff := cmp.Diff([]string{"https://example.com/about"}, got); diff != "" {
			t.Errorf("links mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("truncates to limit", func(t *testing.T) {
		t.Parallel()

		var b strings.Builder
		for _, p := range []string{"/1", "/2", "/3", "/4", "/5", "/6"} {
			b.WriteString(`<a href="` + p + `">x</a>`)
		}
		for _, limit := range []int{0, 1, 3, 6, 10} {
			got := ExtractLinks(b.String(), "https://example.com/", limit)
			want := min(limit, 6)
			if len(got) != want {
				t.Errorf("limit %d: expected %d links, got %d", limit, want, len(got))
			}
		}
	})

	t.Run("negative limit yields empty result", func(t *testing.T) {
		t.Parallel()

		got := ExtractLinks(`<a href="/x">x</a>`, "https://example.com/", -1)
		if len(got) != 0 {
			t.Errorf("expected no links, got %v", got)
		}
	})

	t.Run("invalid base yields empty result", func(t *testing.T) {
		t.Parallel()

		got := ExtractLinks(`<a href="/x">x</a>`, "not a url", 5)
		if len(got) != 0 {
			t.Errorf("expected no links, got %v", got)
		}
	})

	t.Run("output invariants hold across documents", func(t *testing.T) {
		t.Parallel()

		base := "https://www.example.co.uk/news/"
		docs := []string{
			``,
			`<p>no links</p>`,
			`<a href="/x">1</a><a href="/x#a">2</a><a href="/x#b">3</a><a href="/x">4</a>`,
			`<a href="https://shop.example.co.uk/">shop</a><a href="https://example.com/">com</a>`,
			`<a href="https://www.example.co.uk/news/#frag">self</a><a href="../about">up</a>`,
			`<a href="//cdn.example.co.uk/img">proto-relative</a><a href="http://other.co.uk/">other</a>`,
			`<a href="https://www.example.co.uk/news/">self exact</a><a href="tel:123">tel</a>`,
		}
		baseDomain := RegistrableDomain("www.example.co.uk")

		for _, doc := range docs {
			for _, limit := range []int{0, 1, 2, 5} {
				got := ExtractLinks(doc, base, limit)
				if len(got) > limit {
					t.Errorf("limit %d exceeded: %v", limit, got)
				}
				seen := make(map[string]bool)
				for _, link := range got {
					if seen[link] {
						t.Errorf("duplicate link %s", link)
					}
					seen[link] = true
					if strings.Contains(link, "#") {
						t.Errorf("link has fragment: %s", link)
					}
					if canonicalString(link) == canonicalString(base) {
						t.Errorf("self link returned: %s", link)
					}
					host := link[strings.Index(link, "//")+2:]
					if i := strings.Index(host, "/"); i >= 0 {
						host = host[:i]
					}
					if RegistrableDomain(host) != baseDomain {
						t.Errorf("cross-domain link returned: %s", link)
					}
				}
			}
		}
	})
}
