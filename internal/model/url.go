package model

import (
	"net/url"
	"strings"
)

// ValidateURL checks that raw is an absolute http or https URL with a host.
// It returns a *ValidationError naming the URL otherwise.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return &ValidationError{Field: "url", Reason: "must not be empty"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "url", Value: raw, Reason: "cannot be parsed"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "url", Value: raw, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "url", Value: raw, Reason: "host is missing"}
	}
	return nil
}

// ValidateURLs validates every URL and returns the first error.
// An empty list is rejected.
func ValidateURLs(urls []string) error {
	if len(urls) == 0 {
		return &ValidationError{Field: "urls", Reason: "at least one URL is required"}
	}
	for _, u := range urls {
		if err := ValidateURL(u); err != nil {
			return err
		}
	}
	return nil
}
