package scrape

import "errors"

// Batch job errors. They are wrapped in a *model.UpstreamError.
var (
	// ErrBatchTimeout is returned when a batch job does not complete within
	// the wait ceiling.
	ErrBatchTimeout = errors.New("batch scrape job timed out")

	// ErrBatchFailed is returned when the service reports the job as failed.
	ErrBatchFailed = errors.New("batch scrape job failed")

	// ErrBatchRejected is returned when the service does not accept a job.
	ErrBatchRejected = errors.New("failed to submit batch scrape job")

	// ErrForeignNextLink is returned when a completed job's continuation
	// link leaves the configured service.
	ErrForeignNextLink = errors.New("continuation link outside the scrape service")
)

// Per-URL failure messages stored in model.PageRecord.Error.
const (
	msgEntryFailed = "Failed to scrape this URL."
	msgNoResult    = "No result returned for this URL."
)
