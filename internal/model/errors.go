package model

import (
	"errors"
	"fmt"
)

// Error categories shared by every package.
// Callers match a category with errors.Is and extract details with errors.As.
var (
	// ErrConfiguration is the category of errors caused by missing or invalid
	// settings, such as an unset scrape API URL or LLM model.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation is the category of errors caused by malformed user input,
	// such as an invalid URL or an empty goal. Nothing is sent over the network.
	ErrValidation = errors.New("validation error")

	// ErrUpstream is the category of errors returned by the scraping service
	// or the language model: non-2xx responses, malformed bodies, failed or
	// timed-out batch jobs, and unusable model output.
	ErrUpstream = errors.New("upstream error")
)

// ConfigurationError reports a required setting that is missing or invalid.
type ConfigurationError struct {
	// Setting is the environment variable or config key that is at fault.
	Setting string

	// Reason describes what is wrong with the setting.
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a ConfigurationError for a missing setting.
func NewConfigurationError(setting string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Reason: "not configured"}
}

// ValidationError reports user input that was rejected before any network call.
type ValidationError struct {
	// Field names the rejected input (e.g. "url", "goal").
	Field string

	// Value is the rejected value. May be empty.
	Value string

	// Reason describes why the value was rejected.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UpstreamError reports a failure of the scraping service or the language model.
type UpstreamError struct {
	// Service is "scrape" or "llm".
	Service string

	// Op is the operation that failed (e.g. "batch submit", "plan").
	Op string

	// StatusCode is the HTTP status code, or 0 when no response was received.
	StatusCode int

	// Message is the diagnostic message reported by the service, if any.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s: %s failed", e.Service, e.Op)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
