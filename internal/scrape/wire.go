package scrape

// Format is an output format requested from the scraping service.
type Format string

const (
	// FormatMarkdown requests the page converted to Markdown.
	FormatMarkdown Format = "markdown"

	// FormatRawHTML requests the unmodified page HTML.
	FormatRawHTML Format = "rawHtml"
)

// Batch job states reported by the service. Any state other than
// completed or failed means the job is still running.
const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// scrapeRequest is the body of POST /v1/scrape.
type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []Format `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	Timeout         int64    `json:"timeout"`
}

// batchRequest is the body of POST /v1/batch/scrape.
type batchRequest struct {
	URLs            []string `json:"urls"`
	Formats         []Format `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	Timeout         int64    `json:"timeout"`
}

// metadata is the page metadata returned by the service.
type metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	SourceURL   string `json:"sourceURL"` //nolint:tagliatelle // service field name
	URL         string `json:"url"`
	StatusCode  int    `json:"statusCode"`
	Error       string `json:"error"`
}

// document is one scraped page.
type document struct {
	Markdown string   `json:"markdown"`
	RawHTML  string   `json:"rawHtml"`
	HTML     string   `json:"html"`
	Title    string   `json:"title"`
	Metadata metadata `json:"metadata"`
}

// scrapeResponse is the body returned by POST /v1/scrape.
type scrapeResponse struct {
	Success bool      `json:"success"`
	Data    *document `json:"data"`
	Error   string    `json:"error"`
}

// batchSubmitResponse is the body returned by POST /v1/batch/scrape.
type batchSubmitResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

// batchStatusResponse is the body returned by GET /v1/batch/scrape/{id}.
type batchStatusResponse struct {
	Status string     `json:"status"`
	Data   []document `json:"data"`
	Next   string     `json:"next"`
	Error  string     `json:"error"`
}

// errorResponse is the diagnostic body returned with non-2xx statuses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
