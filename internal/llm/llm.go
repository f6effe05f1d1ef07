package llm

import "context"

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider generates a completion for a conversation.
// Implementations return a non-empty completion or an error.
type Provider interface {
	Generate(ctx context.Context, messages []Message, opts ...CallOption) (string, error)
}

// callOptions are per-request settings.
type callOptions struct {
	jsonResponse bool
	temperature  *float64
}

// CallOption configures a single Generate call.
type CallOption func(*callOptions)

// WithJSONResponse asks the service to return a JSON object.
func WithJSONResponse() CallOption {
	return func(o *callOptions) {
		o.jsonResponse = true
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) CallOption {
	return func(o *callOptions) {
		o.temperature = &t
	}
}

// System returns a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User returns a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, messages []Message, opts ...CallOption) (string, error)

// Generate implements Provider.
func (f ProviderFunc) Generate(ctx context.Context, messages []Message, opts ...CallOption) (string, error) {
	return f(ctx, messages, opts...)
}

// ResolveOptions applies opts and reports the resulting settings: whether a
// JSON object response was requested and the temperature, if any.
func ResolveOptions(opts ...CallOption) (jsonResponse bool, temperature *float64) {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	return co.jsonResponse, co.temperature
}
