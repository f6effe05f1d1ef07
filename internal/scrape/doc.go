// Package scrape is the client for the Firecrawl-compatible scraping service.
//
// The service converts web pages to Markdown. Client.FetchOne scrapes a single
// URL synchronously. Client.FetchBatch submits many URLs as one asynchronous
// job and polls the job until it completes, fails, or the wait ceiling is
// reached.
//
// Ordinary fetch failures (non-2xx responses, malformed bodies, pages the
// service could not scrape) are reported per URL through
// model.PageRecord.Error. Returned errors are reserved for configuration
// problems, invalid input and batch-level failures.
package scrape
