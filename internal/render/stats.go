package render

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/nao1215/intelscan/internal/model"
)

// Stats computes structural statistics for a page's Markdown body.
// Domain is the hostname of pageURL, or empty when the URL does not parse.
func Stats(md, pageURL string) model.PageStats {
	stats := model.PageStats{
		WordCount: len(strings.Fields(md)),
		Domain:    hostname(pageURL),
	}
	if md == "" {
		return stats
	}

	source := []byte(md)
	doc := markdown.Parser().Parse(text.NewReader(source))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Paragraph:
			stats.ParagraphCount++
		case *ast.Heading:
			stats.HeadingCount++
		case *ast.ListItem:
			stats.ListItemCount++
		case *ast.Link, *ast.AutoLink:
			stats.LinkCount++
		case *ast.Image:
			stats.ImageCount++
		}
		return ast.WalkContinue, nil
	})
	return stats
}

// PageStats computes Stats for a record. Failed records get nil.
func PageStats(page model.PageRecord) *model.PageStats {
	if page.Failed() {
		return nil
	}
	s := Stats(page.RawMarkdown, page.URL)
	return &s
}

func hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
