package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/intelscan/internal/model"
	"github.com/nao1215/intelscan/internal/scrape"
)

// DefaultLimitPerSite is the number of links followed from each seed when
// the caller does not choose a limit.
const DefaultLimitPerSite = 5

// BatchFetcher fetches many URLs at once. It must return exactly one record
// per requested URL, in request order. *scrape.Client satisfies it.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, urls []string, formats ...scrape.Format) ([]model.PageRecord, error)
}

// Expander turns seed URLs into crawl groups.
type Expander struct {
	fetcher BatchFetcher
	logger  *slog.Logger
}

// ExpanderOption configures an Expander.
type ExpanderOption func(*Expander)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ExpanderOption {
	return func(e *Expander) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExpander creates an Expander that fetches through fetcher.
func NewExpander(fetcher BatchFetcher, opts ...ExpanderOption) *Expander {
	e := &Expander{
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// discovery is a link found in a seed page, tagged with the index of the
// seed that found it first.
type discovery struct {
	url  string
	seed int
}

// Expand fetches the seeds, extracts up to limitPerSite same-site links from
// each seed's HTML, fetches every discovered link in one batch and returns
// one group per seed in seed order.
//
// A link found from several seeds belongs to the first seed, in seed order,
// that found it. Links that are themselves seeds are not fetched again. A
// seed that failed to fetch yields a group holding only its error record.
// Batch-level errors from either fetch pass are returned as is.
func (e *Expander) Expand(ctx context.Context, seeds []string, limitPerSite int) ([]model.CrawlGroup, error) {
	if err := model.ValidateURLs(seeds); err != nil {
		return nil, err
	}

	seedRecords, err := e.fetcher.FetchBatch(ctx, seeds, scrape.FormatMarkdown, scrape.FormatRawHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seed pages: %w", err)
	}
	if len(seedRecords) != len(seeds) {
		return nil, &model.UpstreamError{
			Service: "scrape",
			Op:      "batch scrape",
			Message: fmt.Sprintf("expected %d seed records, got %d", len(seeds), len(seedRecords)),
		}
	}

	discovered := e.discover(seeds, seedRecords, limitPerSite)

	var linkRecords []model.PageRecord
	if len(discovered) > 0 {
		urls := make([]string, len(discovered))
		for i, d := range discovered {
			urls[i] = d.url
		}
		linkRecords, err = e.fetcher.FetchBatch(ctx, urls, scrape.FormatMarkdown)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch discovered pages: %w", err)
		}
		if len(linkRecords) != len(urls) {
			return nil, &model.UpstreamError{
				Service: "scrape",
				Op:      "batch scrape",
				Message: fmt.Sprintf("expected %d link records, got %d", len(urls), len(linkRecords)),
			}
		}
	}

	groups := make([]model.CrawlGroup, len(seeds))
	for i, seed := range seeds {
		groups[i] = model.CrawlGroup{
			StartingURL: seed,
			Pages:       []model.PageRecord{seedRecords[i]},
		}
	}
	for i, rec := range linkRecords {
		owner := discovered[i].seed
		groups[owner].Pages = append(groups[owner].Pages, rec)
	}

	e.logger.Debug("crawl expansion finished", "seeds", len(seeds), "discovered", len(discovered))
	return groups, nil
}

// discover extracts links from every seed with usable HTML and deduplicates
// them across seeds, first seed wins.
func (e *Expander) discover(seeds []string, records []model.PageRecord, limit int) []discovery {
	seen := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seen[canonicalString(s)] = true
	}

	var found []discovery
	for i, rec := range records {
		if rec.Failed() {
			e.logger.Warn("seed fetch failed, skipping link discovery", "url", seeds[i], "error", rec.Error)
			continue
		}
		if !rec.HasHTML() {
			e.logger.Debug("seed has no HTML, skipping link discovery", "url", seeds[i])
			continue
		}

		// Relative links resolve against the final URL after redirects.
		base := rec.URL
		if base == "" {
			base = seeds[i]
		}
		for _, link := range ExtractLinks(rec.RawHTML, base, limit) {
			key := canonicalString(link)
			if seen[key] {
				continue
			}
			seen[key] = true
			found = append(found, discovery{url: link, seed: i})
		}
	}
	return found
}
