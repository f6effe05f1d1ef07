// Package crawler discovers same-site links in scraped pages and expands
// seed URLs into crawl groups.
//
// # Components
//
//   - Parser: HTML parser that extracts the title and anchors of a page and
//     classifies links as internal or external by registrable domain
//   - ExtractLinks: the link discovery rule used by crawl expansion
//   - Expander: fetches seeds, discovers their links and fetches those links,
//     grouping every page under the seed it was discovered from
//
// Fetching is delegated to the scraping service through the BatchFetcher
// interface. This package makes no network calls of its own.
//
// # Usage
//
//	expander := crawler.NewExpander(scrapeClient, crawler.WithLogger(logger))
//	groups, err := expander.Expand(ctx, []string{"https://example.com/"}, 5)
//
// # Registrable domains
//
// Links are scoped to a site by a simple registrable-domain heuristic (see
// RegistrableDomain). It does not consult the public suffix list and is
// wrong for some multi-part suffixes such as "github.io" sites, which are
// all treated as one site.
package crawler
