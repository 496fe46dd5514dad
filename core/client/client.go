package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/tabscrape/providers/ai"
	"github.com/leofalp/tabscrape/providers/observability"
)

// Client sends prompts to a provider through the configured middleware chain.
type Client struct {
	provider         ai.Provider
	defaultModel     string
	systemPrompt     string
	generationConfig *ai.GenerationConfig
	responseFormat   *ai.ResponseFormat
	observer         observability.Provider
	middlewares      []MiddlewareConfig
	send             SendFunc
}

// Option configures a Client.
type Option func(*Client)

// WithDefaultModel sets the model used when a request does not name one.
func WithDefaultModel(model string) Option {
	return func(c *Client) {
		c.defaultModel = model
	}
}

// WithSystemPrompt sets the system prompt sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// WithGenerationConfig sets sampling parameters for every request.
func WithGenerationConfig(cfg ai.GenerationConfig) Option {
	return func(c *Client) {
		c.generationConfig = &cfg
	}
}

// WithResponseFormat asks the provider for a given output shape.
func WithResponseFormat(format ai.ResponseFormat) Option {
	return func(c *Client) {
		c.responseFormat = &format
	}
}

// WithObserver enables the observability middleware as the outermost
// wrapper of the chain.
func WithObserver(observer observability.Provider) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithMiddleware appends middlewares to the chain. The first one given is
// the outermost.
func WithMiddleware(middlewares ...MiddlewareConfig) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}

// New creates a Client for provider.
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, errors.New("client: provider is required")
	}

	c := &Client{provider: provider}
	for _, opt := range opts {
		opt(c)
	}

	for i, m := range c.middlewares {
		if m.Send == nil {
			return nil, fmt.Errorf("client: middleware at index %d has a nil Send function", i)
		}
	}

	chain := c.middlewares
	if c.observer != nil {
		chain = append([]MiddlewareConfig{NewObservabilityMiddleware(c.observer, provider.Name(), c.defaultModel)}, chain...)
	}
	c.send = buildSendChain(provider, chain)

	return c, nil
}

// Provider returns the wrapped provider.
func (c *Client) Provider() ai.Provider {
	return c.provider
}

// Observer returns the observer set with WithObserver, or the no-op provider.
func (c *Client) Observer() observability.Provider {
	return observability.OrNop(c.observer)
}

// SendMessage sends a single user prompt and returns the completed response.
// Each call is independent; no conversation state is kept.
func (c *Client) SendMessage(ctx context.Context, prompt string) (*ai.ChatResponse, error) {
	if prompt == "" {
		return nil, errors.New("client: prompt is empty")
	}

	request := ai.ChatRequest{
		Model:            c.defaultModel,
		SystemPrompt:     c.systemPrompt,
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: prompt}},
		GenerationConfig: c.generationConfig,
		ResponseFormat:   c.responseFormat,
	}
	return c.send(ctx, request)
}
