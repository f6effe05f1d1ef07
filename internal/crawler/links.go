package crawler

import (
	"net/url"
	"strings"
)

// ExtractLinks returns the same-site links found in an HTML document.
//
// Every anchor is resolved against baseURL and stripped of its fragment.
// Links to a different registrable domain and links to baseURL itself are
// discarded. The remaining links are deduplicated, keeping the first
// occurrence, and truncated to at most limit entries. A limit of zero or
// less, an unparsable document or an unparsable baseURL yield an empty result.
func ExtractLinks(htmlContent, baseURL string, limit int) []string {
	if limit <= 0 {
		return []string{}
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return []string{}
	}

	parser := &Parser{baseURL: base}
	result, err := parser.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return []string{}
	}

	self := canonicalKey(base)
	seen := map[string]bool{self: true}
	links := make([]string, 0, min(limit, len(result.InternalLinks)))
	for _, link := range result.InternalLinks {
		key := canonicalString(link)
		if seen[key] {
			continue
		}
		seen[key] = true
		links = append(links, link)
		if len(links) == limit {
			break
		}
	}
	return links
}
