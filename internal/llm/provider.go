package llm

import "context"

// Message roles on the provider wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single message in a chat completion request
type ChatMessage struct {
	Role    string
	Content string
}

// DeltaFunc receives each streamed completion fragment in order. Returning
// an error aborts the stream.
type DeltaFunc func(delta string) error

// Provider defines the interface for streaming LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// StreamChat streams a chat completion, invoking onDelta for each
	// fragment. It returns after the stream finishes or fails; fragments
	// delivered before a failure have already been passed to onDelta.
	StreamChat(ctx context.Context, messages []ChatMessage, model string, onDelta DeltaFunc) error
}
