// Package llm is a client for OpenAI-compatible chat-completion services.
//
// The endpoint is the full completion URL (for example
// "https://api.openai.com/v1/chat/completions" or a local model server), so
// any service that speaks the chat-completions wire format can be used.
package llm
