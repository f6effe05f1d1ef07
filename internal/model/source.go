package model

// Source is a page that can be cited in a synthesized report.
type Source struct {
	// Index is the 1-based citation number.
	Index int

	// Page is the cited record.
	Page PageRecord
}

// NumberSources assigns citation numbers to pages.
// Source N is the Nth record with non-empty content in fetch order; failed
// and empty records are skipped and do not consume a number. The synthesizer
// and the citation resolver both number sources through this function.
func NumberSources(pages []PageRecord) []Source {
	sources := make([]Source, 0, len(pages))
	for _, p := range pages {
		if !p.HasContent() {
			continue
		}
		sources = append(sources, Source{Index: len(sources) + 1, Page: p})
	}
	return sources
}
