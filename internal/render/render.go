package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// markdown is shared by every call. goldmark.Markdown is safe for concurrent use.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// ugcPolicy is the sanitizer applied to rendered reports.
var ugcPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// ToHTML renders Markdown to HTML. Raw HTML embedded in the source is
// omitted by goldmark's default (unsafe-off) renderer.
func ToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// Sanitize strips scripts, event handlers and other unsafe markup from html.
func Sanitize(html string) string {
	return ugcPolicy.Sanitize(html)
}

// SafeHTML renders md and sanitizes the result.
func SafeHTML(md string) (string, error) {
	out, err := ToHTML(md)
	if err != nil {
		return "", err
	}
	return Sanitize(out), nil
}
