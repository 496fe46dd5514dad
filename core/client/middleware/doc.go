// Package middleware provides the built-in send middlewares for
// [client.Client]. Each is constructed by a New* function returning a
// [client.MiddlewareConfig] ready for [client.WithMiddleware].
//
//   - [NewTimeoutMiddleware] bounds each service call with a deadline.
//   - [NewRetryMiddleware] retries transient failures with exponential
//     backoff and jitter.
//   - [NewLoggingMiddleware] writes request/response summaries to a
//     slog.Logger.
//
// Middlewares execute outermost-first:
//
//	c, err := client.New(provider,
//	    client.WithMiddleware(
//	        middleware.NewTimeoutMiddleware(2*time.Minute),
//	        middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 2}),
//	    ),
//	)
package middleware
