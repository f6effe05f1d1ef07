package model

// PageRecord is one fetched page as returned by the scraping service.
// Exactly one of (content fields, Error) is meaningful: a record either
// carries content or carries a human-readable error, never both.
// Records are produced once by the fetch client; only Stats is attached
// afterwards.
type PageRecord struct {
	// URL is the page URL. For successful fetches this is the source URL
	// reported by the service, falling back to the requested URL.
	URL string `json:"url"`

	// Title is the page title, "Untitled" when the service reports none.
	Title string `json:"title,omitempty"`

	// Description is the page's meta description.
	Description string `json:"description,omitempty"`

	// Language is the page language as reported by the service.
	Language string `json:"language,omitempty"`

	// RawMarkdown is the page content converted to Markdown.
	RawMarkdown string `json:"raw_markdown,omitempty"`

	// RawHTML is the unmodified page HTML. Only requested during crawl
	// expansion where links must be extracted from the markup.
	RawHTML string `json:"raw_html,omitempty"` //nolint:tagliatelle // HTML is acronym

	// Error is the failure message for pages that could not be fetched.
	Error string `json:"error,omitempty"`

	// Stats holds structural statistics for the page's Markdown.
	// Nil until the statistics step has run.
	Stats *PageStats `json:"stats,omitempty"`
}

// UntitledPage is the title used when the service returns no title.
const UntitledPage = "Untitled"

// UnknownURL is the URL used for failed batch entries that carry no URL.
const UnknownURL = "Unknown URL"

// NewErrorRecord creates a record describing a failed fetch of url.
func NewErrorRecord(url, message string) PageRecord {
	if url == "" {
		url = UnknownURL
	}
	return PageRecord{URL: url, Error: message}
}

// Failed reports whether the record describes a failed fetch.
func (p PageRecord) Failed() bool {
	return p.Error != ""
}

// HasContent reports whether the record carries usable Markdown.
// Only such records are numbered as citation sources.
func (p PageRecord) HasContent() bool {
	return !p.Failed() && p.RawMarkdown != ""
}

// HasHTML reports whether the record carries raw HTML for link extraction.
func (p PageRecord) HasHTML() bool {
	return !p.Failed() && p.RawHTML != ""
}

// CrawlGroup holds the pages fetched for one seed URL during crawl expansion.
// Pages[0] is always the seed page itself, followed by the pages discovered
// from it in discovery order. All pages share the seed's registrable domain.
type CrawlGroup struct {
	// StartingURL is the seed URL this group was expanded from.
	StartingURL string `json:"starting_url"`

	// Pages contains the seed record followed by discovered pages.
	Pages []PageRecord `json:"pages"`
}

// Seed returns the group's seed record.
func (g CrawlGroup) Seed() PageRecord {
	if len(g.Pages) == 0 {
		return NewErrorRecord(g.StartingURL, "no pages fetched")
	}
	return g.Pages[0]
}

// Discovered returns the pages found from the seed, excluding the seed itself.
func (g CrawlGroup) Discovered() []PageRecord {
	if len(g.Pages) <= 1 {
		return nil
	}
	return g.Pages[1:]
}

// FlattenGroups returns every page of every group in group order.
func FlattenGroups(groups []CrawlGroup) []PageRecord {
	var pages []PageRecord
	for _, g := range groups {
		pages = append(pages, g.Pages...)
	}
	return pages
}
