package model

import "fmt"

// FetchMode selects how the URLs of an analysis are fetched.
type FetchMode string

const (
	// ModeScrape fetches exactly the given URLs.
	ModeScrape FetchMode = "scrape"

	// ModeCrawl fetches the given URLs and expands each into same-domain links.
	ModeCrawl FetchMode = "crawl"
)

// MaxPlanURLs is the maximum number of URLs a plan may contain.
const MaxPlanURLs = 5

// ParseFetchMode converts s to a FetchMode.
func ParseFetchMode(s string) (FetchMode, error) {
	switch FetchMode(s) {
	case ModeScrape, ModeCrawl:
		return FetchMode(s), nil
	default:
		return "", &ValidationError{Field: "mode", Value: s, Reason: "must be crawl or scrape"}
	}
}

// String returns the mode name.
func (m FetchMode) String() string {
	return string(m)
}

// Plan is the fetch plan chosen by the language model for a goal.
// A plan is produced once per auto analysis and never mutated.
type Plan struct {
	// Mode is the fetch mode.
	Mode FetchMode `json:"mode"`

	// URLs holds between one and MaxPlanURLs absolute http(s) URLs.
	URLs []string `json:"urls"`
}

// Validate checks the plan invariants: a known mode and 1..MaxPlanURLs valid URLs.
func (p Plan) Validate() error {
	if _, err := ParseFetchMode(string(p.Mode)); err != nil {
		return err
	}
	if len(p.URLs) == 0 {
		return &ValidationError{Field: "urls", Reason: "plan contains no URLs"}
	}
	if len(p.URLs) > MaxPlanURLs {
		return &ValidationError{
			Field:  "urls",
			Reason: fmt.Sprintf("plan contains %d URLs, at most %d allowed", len(p.URLs), MaxPlanURLs),
		}
	}
	return ValidateURLs(p.URLs)
}
