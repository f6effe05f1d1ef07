package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers can match them with errors.Is.
var (
	// ErrInvalidTimeout is returned when a service timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlLimit is returned when the per-seed crawl limit is not positive.
	ErrInvalidCrawlLimit = errors.New("invalid crawl limit: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidLanguage is returned when the report language is not a
	// well-formed BCP-47 tag.
	ErrInvalidLanguage = errors.New("invalid language: must be a BCP-47 tag such as en or ja")

	// ErrInvalidRateLimit is returned when the rate limit is negative or a
	// positive rate has no burst.
	ErrInvalidRateLimit = errors.New("invalid rate limit: rate must be non-negative and burst positive")
)
