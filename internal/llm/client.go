package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/intelscan/internal/model"
)

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 120 * time.Second

// ErrCommunication is wrapped by every error caused by failing to talk to
// the service or by an unusable response.
var ErrCommunication = errors.New("failed to communicate with LLM")

// maxResponseSize limits how much of a response body is read.
const maxResponseSize = 16 * 1024 * 1024

// Config identifies the completion service.
type Config struct {
	// Endpoint is the full chat-completions URL.
	Endpoint string

	// APIKey is sent as a bearer token. Optional for local model servers.
	APIKey string

	// Model is the model name.
	Model string
}

// ChatClient calls an OpenAI-compatible chat-completions endpoint.
type ChatClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	logger   *slog.Logger
}

// Option configures a ChatClient.
type Option func(*ChatClient)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *ChatClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ChatClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChatClient creates a client. Missing settings are reported when the
// client is first used.
func NewChatClient(cfg Config, opts ...Option) *ChatClient {
	c := &ChatClient{
		endpoint: strings.TrimSpace(cfg.Endpoint),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{Timeout: DefaultTimeout},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *ChatClient) Model() string {
	return c.model
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"` //nolint:tagliatelle // wire format
	Temperature    *float64        `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends messages and returns the trimmed content of the first choice.
//
// A missing endpoint or model is a *model.ConfigurationError. Transport
// failures, non-2xx statuses, malformed bodies and empty completions are
// returned as a *model.UpstreamError wrapping ErrCommunication.
func (c *ChatClient) Generate(ctx context.Context, messages []Message, opts ...CallOption) (string, error) {
	if c.endpoint == "" {
		return "", model.NewConfigurationError("LLM_API")
	}
	if c.model == "" {
		return "", model.NewConfigurationError("LLM_API_MODEL")
	}

	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	payload := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Stream:      false,
		Temperature: co.temperature,
	}
	if co.jsonResponse {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.upstream(0, "", fmt.Errorf("%w: %w", ErrCommunication, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", c.upstream(resp.StatusCode, "", fmt.Errorf("%w: %w", ErrCommunication, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		return "", c.upstream(resp.StatusCode, msg, ErrCommunication)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", c.upstream(resp.StatusCode, "malformed response body", fmt.Errorf("%w: %w", ErrCommunication, err))
	}
	if len(parsed.Choices) == 0 {
		return "", c.upstream(resp.StatusCode, "response had no choices", ErrCommunication)
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", c.upstream(resp.StatusCode, "no content returned", ErrCommunication)
	}

	c.logger.Debug("completion received", "model", c.model, "chars", len(content), "elapsed", time.Since(start))
	return content, nil
}

func (c *ChatClient) upstream(status int, msg string, err error) error {
	return &model.UpstreamError{
		Service:    "llm",
		Op:         "completion",
		StatusCode: status,
		Message:    msg,
		Err:        err,
	}
}
