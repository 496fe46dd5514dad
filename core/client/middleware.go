package client

import (
	"context"

	"github.com/leofalp/tabscrape/providers/ai"
)

// SendFunc is a function that sends a chat request to the provider and returns
// the completed response. It is the unit threaded through the middleware chain.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// Middleware intercepts and optionally transforms send requests and responses.
type Middleware func(next SendFunc) SendFunc

// MiddlewareConfig wraps a send middleware. Send is required; a nil Send
// causes [New] to return an error.
type MiddlewareConfig struct {
	Send Middleware
}

// buildSendChain applies middlewares in reverse so that middlewares[0] is
// the outermost wrapper, i.e. the first to execute on an incoming request.
func buildSendChain(provider ai.Provider, middlewares []MiddlewareConfig) SendFunc {
	var chain SendFunc = func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
		return provider.SendMessage(ctx, request)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Send(chain)
	}

	return chain
}
