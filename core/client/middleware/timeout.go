package middleware

import (
	"context"
	"time"

	"github.com/leofalp/tabscrape/core/client"
	"github.com/leofalp/tabscrape/providers/ai"
)

// NewTimeoutMiddleware wraps each call's context with context.WithTimeout.
// A shorter deadline already on the caller's context wins. A non-positive
// timeout disables the middleware.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{Send: func(next client.SendFunc) client.SendFunc {
		if timeout <= 0 {
			return next
		}
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}}
}
