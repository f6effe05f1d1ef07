package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/text/language"

	"github.com/nao1215/intelscan/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "intelscan"

	// DefaultScrapeTimeout is the per-request timeout of the scrape API.
	// Single page fetches are bounded by this value.
	DefaultScrapeTimeout = 45 * time.Second

	// DefaultLLMTimeout bounds a single chat-completions request.
	// Synthesis over many long pages can take well over a minute.
	DefaultLLMTimeout = 120 * time.Second

	// DefaultLanguage is the BCP-47 tag of the report language.
	DefaultLanguage = "en"

	// DefaultCrawlLimit is the number of discovered links fetched per seed.
	DefaultCrawlLimit = 5

	// DefaultBatchSize is the number of goals analyzed concurrently by
	// analyze --goals-file.
	DefaultBatchSize = 3

	// DefaultListenAddress is the address of the HTTP API.
	// Loopback only; the API carries no authentication of its own.
	DefaultListenAddress = "127.0.0.1:8080"

	// DefaultRateLimit is the sustained number of API requests per second.
	DefaultRateLimit = 2.0

	// DefaultRateBurst is the number of API requests allowed in a burst.
	DefaultRateBurst = 5
)

// Environment variable names read by ApplyEnv.
const (
	EnvScrapeURL     = "SCRAPE_API_URL"
	EnvScrapeKey     = "SCRAPE_API_KEY"
	EnvScrapeTimeout = "SCRAPE_API_TIMEOUT"
	EnvLLMEndpoint   = "LLM_API"
	EnvLLMKey        = "LLM_API_KEY"
	EnvLLMModel      = "LLM_API_MODEL"
	EnvLanguage      = "INTELSCAN_LANGUAGE"
	EnvProxy         = "INTELSCAN_PROXY"
)

// Config holds all configuration options for intelscan.
// It is populated once at startup and passed explicitly to the components
// that need it.
type Config struct {
	// ScrapeAPIURL is the base URL of the scrape service.
	// Required by every command that fetches pages.
	ScrapeAPIURL string

	// ScrapeAPIKey is sent as a bearer token to the scrape service.
	// Self-hosted services may not require one.
	ScrapeAPIKey string

	// ScrapeTimeout is the per-request timeout of the scrape service.
	ScrapeTimeout time.Duration

	// LLMEndpoint is the full chat-completions URL of the language model.
	LLMEndpoint string

	// LLMAPIKey is sent as a bearer token to the language model.
	LLMAPIKey string

	// LLMModel is the model name sent with every completion request.
	LLMModel string

	// LLMTimeout bounds a single completion request.
	LLMTimeout time.Duration

	// Language is the BCP-47 tag of the language reports are written in.
	Language string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form used for
	// every outbound request.
	ProxyAddress string

	// CrawlLimit is the number of discovered links fetched per seed in
	// crawl mode.
	CrawlLimit int

	// BatchSize is the number of goals analyzed concurrently.
	BatchSize int

	// PromptDir is a directory of prompt templates overriding the built-in
	// ones. Files missing from the directory keep their defaults.
	PromptDir string

	// ListenAddress is the address the HTTP API listens on.
	ListenAddress string

	// RateLimit is the sustained number of API requests per second.
	// Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the number of API requests allowed in a burst.
	RateBurst int

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/intelscan on Linux).
	DBDir string

	// SaveToDB indicates whether analyses are persisted.
	SaveToDB bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the file is searched for by FindConfigFile.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ScrapeTimeout: DefaultScrapeTimeout,
		LLMTimeout:    DefaultLLMTimeout,
		Language:      DefaultLanguage,
		CrawlLimit:    DefaultCrawlLimit,
		BatchSize:     DefaultBatchSize,
		ListenAddress: DefaultListenAddress,
		RateLimit:     DefaultRateLimit,
		RateBurst:     DefaultRateBurst,
		DBDir:         XDGDataDir(),
		SaveToDB:      true,
	}
}

// XDGDataDir returns the XDG data directory for intelscan.
// On Linux: ~/.local/share/intelscan
// On macOS: ~/Library/Application Support/intelscan
// On Windows: %LOCALAPPDATA%\intelscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for intelscan.
// On Linux: ~/.config/intelscan
// On macOS: ~/Library/Application Support/intelscan
// On Windows: %APPDATA%\intelscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found. Missing service settings are not
// reported here; see RequireScrape and RequireLLM.
func (c *Config) Validate() error {
	if c.ScrapeTimeout <= 0 || c.LLMTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.CrawlLimit <= 0 {
		return ErrInvalidCrawlLimit
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if _, err := language.Parse(c.Language); err != nil {
		return ErrInvalidLanguage
	}

	if c.RateLimit < 0 || (c.RateLimit > 0 && c.RateBurst <= 0) {
		return ErrInvalidRateLimit
	}

	return nil
}

// RequireScrape reports a ConfigurationError when the scrape service is
// not configured.
func (c *Config) RequireScrape() error {
	if c.ScrapeAPIURL == "" {
		return model.NewConfigurationError(EnvScrapeURL)
	}
	return nil
}

// RequireLLM reports a ConfigurationError when the language model is not
// configured.
func (c *Config) RequireLLM() error {
	if c.LLMEndpoint == "" {
		return model.NewConfigurationError(EnvLLMEndpoint)
	}
	if c.LLMModel == "" {
		return model.NewConfigurationError(EnvLLMModel)
	}
	return nil
}
