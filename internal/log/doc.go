// Package log provides secure logging on top of the standard slog package.
//
// The SecureHandler masks credentials before they reach the output:
//   - attributes named like API keys, tokens or authorization headers
//   - values that look like bearer tokens, JWTs or provider API keys
//     (sk-..., fc-...)
//   - credential query parameters embedded in logged URLs
//
// Scrape and model API keys travel with almost every outbound request, so
// even verbose logs never print them.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("calling model", "endpoint", endpoint, "api_key", key) // api_key=***REDACTED***
//	slog.SetDefault(logger)
package log
