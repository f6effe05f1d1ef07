package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts the title and links of an HTML page.
// Links are resolved against the page URL, or against the document's
// <base href> when one is present.
type Parser struct {
	// baseURL is the URL of the page being parsed.
	baseURL *url.URL
}

// ParseResult contains the information extracted from an HTML page.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links contains every resolved http(s) anchor target in document
	// order, with fragments removed. May contain duplicates.
	Links []string

	// InternalLinks are links that share the page's registrable domain.
	InternalLinks []string

	// ExternalLinks are links to other registrable domains.
	ExternalLinks []string
}

// NewParser creates a parser for a page located at baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and extracts its title and links.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	base := p.baseURL
	if href := findBaseHref(doc); href != "" {
		if u, err := url.Parse(href); err == nil {
			base = p.baseURL.ResolveReference(u)
		}
	}

	result := &ParseResult{
		Links:         make([]string, 0),
		InternalLinks: make([]string, 0),
		ExternalLinks: make([]string, 0),
	}
	siteDomain := RegistrableDomain(p.baseURL.Hostname())

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if link := resolveURL(base, getAttr(n, "href")); link != nil {
					s := link.String()
					result.Links = append(result.Links, s)
					if RegistrableDomain(link.Hostname()) == siteDomain {
						result.InternalLinks = append(result.InternalLinks, s)
					} else {
						result.ExternalLinks = append(result.ExternalLinks, s)
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// findBaseHref returns the href of the document's first <base> element.
func findBaseHref(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "base" {
		return getAttr(n, "href")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := findBaseHref(c); href != "" {
			return href
		}
	}
	return ""
}

// resolveURL resolves href against base and returns it without fragment.
// It returns nil for empty, pseudo-scheme (javascript:, mailto:, tel:,
// data:) and fragment-only references, and for non-http(s) targets.
func resolveURL(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return nil
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return nil
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	if resolved.Host == "" {
		return nil
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved
}

// canonicalKey returns the identity of u used for deduplication:
// lowercase scheme and host, "/" for an empty path, no fragment.
func canonicalKey(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	c.Fragment = ""
	c.RawFragment = ""
	if c.Path == "" && c.RawPath == "" {
		c.Path = "/"
	}
	return c.String()
}

// canonicalString is canonicalKey for a raw URL string.
func canonicalString(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return canonicalKey(u)
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
