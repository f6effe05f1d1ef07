package render

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
)

// Metadata is the head information of an HTML document.
type Metadata struct {
	Title       string
	Description string
	Language    string
}

// ExtractMetadata reads the <title>, the description meta tag (falling back
// to og:description) and the lang attribute of <html>.
func ExtractMetadata(html string) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse html: %w", err)
	}

	var meta Metadata
	meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if v, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		meta.Description = strings.TrimSpace(v)
	}
	if meta.Description == "" {
		if v, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
			meta.Description = strings.TrimSpace(v)
		}
	}
	if v, ok := doc.Find("html").First().Attr("lang"); ok {
		meta.Language = strings.TrimSpace(v)
	}
	return meta, nil
}

// HTMLToMarkdown converts an HTML document to Markdown. Relative links are
// resolved against pageURL when it is non-empty.
func HTMLToMarkdown(html, pageURL string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if pageURL != "" {
		opts = append(opts, converter.WithDomain(pageURL))
	}
	md, err := htmltomarkdown.ConvertString(html, opts...)
	if err != nil {
		return "", fmt.Errorf("markdown conversion failed: %w", err)
	}
	return strings.TrimSpace(md), nil
}
