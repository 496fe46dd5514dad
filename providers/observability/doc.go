// Package observability defines the diagnostics sink injected into every
// tabscrape component: tracing spans, counters and histograms, and levelled
// structured logging, composed into a single [Provider].
//
// Components never configure logging themselves. Callers pass a Provider
// through the component's options (or attach it to a [context.Context] with
// [ContextWithObserver]); components that receive none fall back to [Nop].
//
// semconv.go holds the span, attribute and metric names shared by the
// pipeline stages so that log output stays consistent across packages.
package observability
