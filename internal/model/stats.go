package model

// Content quality buckets derived from the word count of a page.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// PageStats holds structural statistics of a page's Markdown.
type PageStats struct {
	WordCount      int    `json:"word_count"`
	ParagraphCount int    `json:"paragraph_count"`
	HeadingCount   int    `json:"heading_count"`
	ListItemCount  int    `json:"list_item_count"`
	LinkCount      int    `json:"link_count"`
	ImageCount     int    `json:"image_count"`
	Domain         string `json:"domain,omitempty"`
}

// HasImages reports whether the page contains at least one image.
func (s PageStats) HasImages() bool {
	return s.ImageCount > 0
}

// HasLinks reports whether the page contains at least one link.
func (s PageStats) HasLinks() bool {
	return s.LinkCount > 0
}

// Quality buckets the page by word count: more than 1000 words is high,
// more than 300 is medium, anything shorter is low.
func (s PageStats) Quality() string {
	switch {
	case s.WordCount > 1000:
		return QualityHigh
	case s.WordCount > 300:
		return QualityMedium
	default:
		return QualityLow
	}
}
