package ai

import "context"

// Provider is the interface every text-generation adapter satisfies.
type Provider interface {
	// SendMessage sends one request and returns the completed response.
	// Returns an error if the call fails, the context is cancelled, or the
	// response cannot be decoded.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// Name identifies the adapter in diagnostics (e.g. "openai", "ollama").
	Name() string
}
