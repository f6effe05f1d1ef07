package scrape

import (
	"net/url"
	"strings"

	"github.com/nao1215/intelscan/internal/model"
	"github.com/nao1215/intelscan/internal/render"
)

// normalize converts a scraped document into a PageRecord.
// Missing metadata is recovered from the HTML head when HTML was returned.
// The title falls back to "Untitled" and the URL to the requested URL.
func normalize(doc document, requested string) model.PageRecord {
	pageURL := firstNonEmpty(doc.Metadata.SourceURL, doc.Metadata.URL, requested)
	rawHTML := firstNonEmpty(doc.RawHTML, doc.HTML)

	var head render.Metadata
	if rawHTML != "" {
		// A parse failure leaves head empty and the service metadata wins.
		head, _ = render.ExtractMetadata(rawHTML)
	}

	markdown := doc.Markdown
	if markdown == "" && rawHTML != "" {
		if md, err := render.HTMLToMarkdown(rawHTML, pageURL); err == nil {
			markdown = md
		}
	}

	return model.PageRecord{
		URL:         pageURL,
		Title:       firstNonEmpty(doc.Metadata.Title, doc.Title, head.Title, model.UntitledPage),
		Description: firstNonEmpty(doc.Metadata.Description, head.Description),
		Language:    firstNonEmpty(doc.Metadata.Language, head.Language),
		RawMarkdown: markdown,
		RawHTML:     rawHTML,
	}
}

// entrySucceeded reports whether a batch entry was scraped successfully.
func entrySucceeded(doc document) bool {
	code := doc.Metadata.StatusCode
	return code >= 200 && code < 300
}

// entryError builds the PageRecord for a failed batch entry.
func entryError(doc document, requested string) model.PageRecord {
	msg := msgEntryFailed
	if doc.Metadata.Error != "" {
		msg = msgEntryFailed + " " + doc.Metadata.Error
	}
	return model.NewErrorRecord(firstNonEmpty(requested, doc.Metadata.URL, doc.Metadata.SourceURL), msg)
}

// mapBatch pairs the documents of a completed job with the requested URLs.
// Documents are matched by URL first; requested URLs left unmatched take the
// document at the same position when that document is unclaimed. The result
// holds exactly one record per requested URL in request order.
func mapBatch(requested []string, docs []document) []model.PageRecord {
	byKey := make(map[string]int, len(docs)*2)
	for i, d := range docs {
		for _, u := range []string{d.Metadata.URL, d.Metadata.SourceURL} {
			if u == "" {
				continue
			}
			if _, ok := byKey[urlKey(u)]; !ok {
				byKey[urlKey(u)] = i
			}
		}
	}

	assigned := make([]int, len(requested))
	claimed := make(map[int]bool, len(docs))
	for i, u := range requested {
		assigned[i] = -1
		if j, ok := byKey[urlKey(u)]; ok && !claimed[j] {
			assigned[i] = j
			claimed[j] = true
		}
	}
	for i := range requested {
		if assigned[i] == -1 && i < len(docs) && !claimed[i] {
			assigned[i] = i
			claimed[i] = true
		}
	}

	records := make([]model.PageRecord, len(requested))
	for i, u := range requested {
		j := assigned[i]
		switch {
		case j == -1:
			records[i] = model.NewErrorRecord(u, msgNoResult)
		case entrySucceeded(docs[j]):
			records[i] = normalize(docs[j], u)
		default:
			records[i] = entryError(docs[j], u)
		}
	}
	return records
}

// urlKey returns a comparison key for u: scheme and host lowercased,
// fragment removed, trailing slash trimmed.
func urlKey(u string) string {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return u
	}
	parsed.Fragment = ""
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	return strings.TrimRight(parsed.String(), "/")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
