package config

import "time"

// File represents the structure of the .intelscan configuration file.
// Zero values leave the corresponding setting unchanged.
type File struct {
	// Scrape configures the scrape service.
	Scrape ServiceFile `yaml:"scrape,omitempty"`

	// LLM configures the language model.
	LLM LLMFile `yaml:"llm,omitempty"`

	// Language is the BCP-47 tag of the report language.
	Language string `yaml:"language,omitempty"`

	// Proxy is an optional SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty"`

	// Crawl configures crawl expansion.
	Crawl CrawlFile `yaml:"crawl,omitempty"`

	// BatchSize is the number of goals analyzed concurrently.
	BatchSize int `yaml:"batchSize,omitempty"`

	// Prompts is a directory of prompt template overrides.
	Prompts string `yaml:"prompts,omitempty"`

	// Server configures the HTTP API.
	Server ServerFile `yaml:"server,omitempty"`

	// Database configures persistence.
	Database DatabaseFile `yaml:"database,omitempty"`
}

// ServiceFile holds the connection settings of the scrape service.
type ServiceFile struct {
	URL     string        `yaml:"url,omitempty"`
	APIKey  string        `yaml:"apiKey,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// LLMFile holds the connection settings of the language model.
type LLMFile struct {
	Endpoint string        `yaml:"endpoint,omitempty"`
	APIKey   string        `yaml:"apiKey,omitempty"`
	Model    string        `yaml:"model,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// CrawlFile holds crawl settings.
type CrawlFile struct {
	// Limit is the number of discovered links fetched per seed.
	Limit int `yaml:"limit,omitempty"`
}

// ServerFile holds HTTP API settings.
type ServerFile struct {
	Listen    string  `yaml:"listen,omitempty"`
	RateLimit float64 `yaml:"rateLimit,omitempty"`
	Burst     int     `yaml:"burst,omitempty"`
}

// DatabaseFile holds persistence settings.
type DatabaseFile struct {
	// Dir overrides the XDG data directory.
	Dir string `yaml:"dir,omitempty"`

	// Disabled turns off persistence of analyses.
	Disabled bool `yaml:"disabled,omitempty"`
}

// ApplyFile overrides c with every non-zero setting of f.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}

	setString(&c.ScrapeAPIURL, f.Scrape.URL)
	setString(&c.ScrapeAPIKey, f.Scrape.APIKey)
	if f.Scrape.Timeout != 0 {
		c.ScrapeTimeout = f.Scrape.Timeout
	}

	setString(&c.LLMEndpoint, f.LLM.Endpoint)
	setString(&c.LLMAPIKey, f.LLM.APIKey)
	setString(&c.LLMModel, f.LLM.Model)
	if f.LLM.Timeout != 0 {
		c.LLMTimeout = f.LLM.Timeout
	}

	setString(&c.Language, f.Language)
	setString(&c.ProxyAddress, f.Proxy)
	setString(&c.PromptDir, f.Prompts)
	setString(&c.ListenAddress, f.Server.Listen)
	setString(&c.DBDir, f.Database.Dir)

	if f.Crawl.Limit != 0 {
		c.CrawlLimit = f.Crawl.Limit
	}
	if f.BatchSize != 0 {
		c.BatchSize = f.BatchSize
	}
	if f.Server.RateLimit != 0 {
		c.RateLimit = f.Server.RateLimit
	}
	if f.Server.Burst != 0 {
		c.RateBurst = f.Server.Burst
	}
	if f.Database.Disabled {
		c.SaveToDB = false
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
