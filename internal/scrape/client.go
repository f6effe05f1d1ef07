package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/intelscan/internal/model"
)

const (
	// DefaultRequestTimeout is the per-call scrape timeout. It is sent to the
	// service in milliseconds and also bounds the HTTP call.
	DefaultRequestTimeout = 45 * time.Second

	// DefaultPollInterval is the delay between batch status checks.
	DefaultPollInterval = 5 * time.Second

	// DefaultMaxWait is the wall-clock ceiling for a batch job.
	DefaultMaxWait = 120 * time.Second

	// maxResponseSize limits how much of a response body is read.
	maxResponseSize = 64 * 1024 * 1024

	// maxNextPages limits how many continuation pages of a completed batch
	// are followed.
	maxNextPages = 50

	// maxDiagnosticRunes limits how much of an unstructured error body is
	// kept in a message.
	maxDiagnosticRunes = 200

	serviceName = "scrape"
)

// Client talks to the scraping service.
// A Client is safe for concurrent use; it holds no per-call state.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	requestTimeout time.Duration
	pollInterval   time.Duration
	maxWait        time.Duration
	clock          Clock
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestTimeout sets the per-call scrape timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithPollInterval sets the delay between batch status checks.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithMaxWait sets the wall-clock ceiling for a batch job.
func WithMaxWait(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxWait = d
		}
	}
}

// WithClock sets the clock used by the batch polling loop.
func WithClock(clock Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client for the service at baseURL. apiKey may be empty for
// self-hosted services that do not require authentication. A missing
// baseURL is reported when the client is first used.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		requestTimeout: DefaultRequestTimeout,
		pollInterval:   DefaultPollInterval,
		maxWait:        DefaultMaxWait,
		clock:          realClock{},
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.requestTimeout}
	}
	return c
}

// FetchOne scrapes a single URL as Markdown.
//
// Non-2xx responses, malformed bodies, transport failures and unsuccessful
// scrapes are returned as a PageRecord with Error set. The returned error is
// non-nil only when the service is not configured, url is invalid, or ctx is
// done.
func (c *Client) FetchOne(ctx context.Context, rawURL string) (model.PageRecord, error) {
	if err := c.checkConfigured(); err != nil {
		return model.PageRecord{}, err
	}
	if err := model.ValidateURL(rawURL); err != nil {
		return model.PageRecord{}, err
	}

	req := scrapeRequest{
		URL:             rawURL,
		Formats:         []Format{FormatMarkdown},
		OnlyMainContent: true,
		Timeout:         c.requestTimeout.Milliseconds(),
	}

	var resp scrapeResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/v1/scrape", req, &resp, "scrape"); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.PageRecord{}, ctxErr
		}
		c.logger.Warn("scrape request failed", "url", rawURL, "error", err)
		return model.NewErrorRecord(rawURL, failureMessage(err)), nil
	}

	if !resp.Success || resp.Data == nil {
		msg := "scrape failed"
		if resp.Error != "" {
			msg = fmt.Sprintf("scrape failed: %s", resp.Error)
		}
		return model.NewErrorRecord(rawURL, msg), nil
	}

	return normalize(*resp.Data, rawURL), nil
}

// FetchBatch scrapes urls as one batch job and returns one record per
// requested URL, in request order. formats defaults to Markdown only.
//
// The job is polled every poll interval until it completes, fails, or the
// wait ceiling elapses. Failed jobs and timeouts abort the whole batch with
// a *model.UpstreamError; individual URLs the service could not scrape are
// returned as records with Error set.
func (c *Client) FetchBatch(ctx context.Context, urls []string, formats ...Format) ([]model.PageRecord, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}
	if err := model.ValidateURLs(urls); err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		formats = []Format{FormatMarkdown}
	}

	id, err := c.submitBatch(ctx, urls, formats)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("batch scrape submitted", "job", id, "urls", len(urls))

	start := c.clock.Now()
	polls := 0
	for c.clock.Now().Sub(start) < c.maxWait {
		if err := c.clock.Sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
		polls++

		status, err := c.batchStatus(ctx, c.baseURL+"/v1/batch/scrape/"+url.PathEscape(id))
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case statusCompleted:
			docs, err := c.collectPages(ctx, status)
			if err != nil {
				return nil, err
			}
			c.logger.Debug("batch scrape completed", "job", id, "polls", polls, "entries", len(docs))
			return mapBatch(urls, docs), nil
		case statusFailed:
			return nil, &model.UpstreamError{
				Service: serviceName,
				Op:      "batch scrape",
				Message: status.Error,
				Err:     ErrBatchFailed,
			}
		default:
			c.logger.Debug("batch scrape pending", "job", id, "status", status.Status, "polls", polls)
		}
	}

	return nil, &model.UpstreamError{
		Service: serviceName,
		Op:      "batch scrape",
		Message: fmt.Sprintf("job %s did not complete within %s", id, c.maxWait),
		Err:     ErrBatchTimeout,
	}
}

// checkConfigured reports a ConfigurationError when no base URL is set.
func (c *Client) checkConfigured() error {
	if c.baseURL == "" {
		return model.NewConfigurationError("SCRAPE_API_URL")
	}
	return nil
}

// submitBatch creates a batch job and returns its identifier.
func (c *Client) submitBatch(ctx context.Context, urls []string, formats []Format) (string, error) {
	req := batchRequest{
		URLs:            urls,
		Formats:         formats,
		OnlyMainContent: true,
		Timeout:         c.requestTimeout.Milliseconds(),
	}

	var resp batchSubmitResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/v1/batch/scrape", req, &resp, "batch submit"); err != nil {
		return "", err
	}
	if !resp.Success || resp.ID == "" {
		return "", &model.UpstreamError{
			Service: serviceName,
			Op:      "batch submit",
			Message: resp.Error,
			Err:     ErrBatchRejected,
		}
	}
	return resp.ID, nil
}

// batchStatus fetches one status page of a batch job.
func (c *Client) batchStatus(ctx context.Context, statusURL string) (*batchStatusResponse, error) {
	var resp batchStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, statusURL, nil, &resp, "batch status"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// collectPages gathers the documents of a completed job, following the
// service's continuation links for large results.
func (c *Client) collectPages(ctx context.Context, first *batchStatusResponse) ([]document, error) {
	docs := first.Data
	next := first.Next
	for i := 0; next != "" && i < maxNextPages; i++ {
		nextURL, err := c.resolveNext(next)
		if err != nil {
			return nil, err
		}
		page, err := c.batchStatus(ctx, nextURL)
		if err != nil {
			return nil, err
		}
		docs = append(docs, page.Data...)
		next = page.Next
	}
	return docs, nil
}

// resolveNext resolves a continuation link against the base URL. Links to
// another scheme or host are refused so the API key never leaves the
// configured service.
func (c *Client) resolveNext(next string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid scrape base URL: %w", err)
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", &model.UpstreamError{
			Service: serviceName,
			Op:      "batch status",
			Message: "malformed continuation link",
			Err:     ErrForeignNextLink,
		}
	}
	resolved := base.ResolveReference(ref)
	if !strings.EqualFold(resolved.Scheme, base.Scheme) || !strings.EqualFold(resolved.Host, base.Host) {
		return "", &model.UpstreamError{
			Service: serviceName,
			Op:      "batch status",
			Message: fmt.Sprintf("continuation link points to %s", resolved.Host),
			Err:     ErrForeignNextLink,
		}
	}
	return resolved.String(), nil
}

// doJSON sends body as JSON (when non-nil) and decodes a 2xx response into out.
// Every failure is returned as a *model.UpstreamError.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out any, op string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &model.UpstreamError{Service: serviceName, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &model.UpstreamError{Service: serviceName, Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &model.UpstreamError{
			Service:    serviceName,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    diagnostic(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &model.UpstreamError{
			Service:    serviceName,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    "malformed response body",
			Err:        err,
		}
	}
	return nil
}

// diagnostic extracts the service's error message from a non-2xx body.
func diagnostic(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		if er.Error != "" {
			return er.Error
		}
		if er.Message != "" {
			return er.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if runes := []rune(text); len(runes) > maxDiagnosticRunes {
		text = string(runes[:maxDiagnosticRunes])
	}
	return text
}

// failureMessage converts a request error into a PageRecord error message.
func failureMessage(err error) string {
	var ue *model.UpstreamError
	if !errors.As(err, &ue) {
		return fmt.Sprintf("scrape request failed: %v", err)
	}

	switch {
	case ue.StatusCode != 0 && ue.Message != "":
		return fmt.Sprintf("scrape request failed: %d %s: %s", ue.StatusCode, http.StatusText(ue.StatusCode), ue.Message)
	case ue.StatusCode != 0:
		return fmt.Sprintf("scrape request failed: %d %s", ue.StatusCode, http.StatusText(ue.StatusCode))
	case ue.Err != nil:
		return fmt.Sprintf("scrape request failed: %v", ue.Err)
	default:
		return "scrape request failed"
	}
}
