package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/leofalp/tabscrape/core/client"
	"github.com/leofalp/tabscrape/providers/ai"
)

// RetryConfig holds the tuning parameters for the retry middleware. Zero values
// are replaced with the defaults documented below when NewRetryMiddleware is called.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first failure.
	// Default: 3.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff. Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth multiplier. Default: 2.0.
	BackoffFactor float64

	// JitterFraction adds up to JitterFraction*backoff of random delay.
	// Default: 0.1.
	JitterFraction float64

	// RetryableFunc returns true when an error should trigger a retry.
	// The default retries transient HTTP statuses and deadline errors.
	RetryableFunc func(error) bool
}

// defaultRetryableFunc retries on 429/500/502/503/504 and per-attempt
// deadline expiry. Provider errors carry status codes as text.
func defaultRetryableFunc(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := err.Error()
	for _, code := range []string{"status 429", "status 500", "status 502", "status 503", "status 504"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}
	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}
	if config.RetryableFunc == nil {
		config.RetryableFunc = defaultRetryableFunc
	}
}

// computeBackoff returns min(InitialBackoff * BackoffFactor^attempt, MaxBackoff) + jitter
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}

	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter
	return time.Duration(base + jitter)
}

// NewRetryMiddleware retries failed calls according to config. The caller's
// context is checked between attempts. On exhaustion the returned error wraps
// both [ErrRetryExhausted] and the last provider error.
func NewRetryMiddleware(config RetryConfig) client.MiddlewareConfig {
	applyRetryDefaults(&config)

	return client.MiddlewareConfig{Send: func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			var lastErr error

			for attempt := 0; attempt <= config.MaxRetries; attempt++ {
				if attempt > 0 {
					timer := time.NewTimer(computeBackoff(config, attempt-1))
					select {
					case <-ctx.Done():
						timer.Stop()
						return nil, ctx.Err()
					case <-timer.C:
					}
				}

				response, err := next(ctx, request)
				if err == nil {
					return response, nil
				}
				lastErr = err

				if ctx.Err() != nil || !config.RetryableFunc(err) {
					return nil, err
				}
			}

			return nil, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr)
		}
	}}
}
