package observability

import "context"

type spanKey struct{}

type observerKey struct{}

// SpanFromContext extracts a Span from the context.
// Returns nil if no span is present.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanKey{}).(Span)
	return span
}

// ContextWithSpan returns a new context with the given span attached.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanKey{}, span)
}

// ObserverFromContext returns the Provider attached to ctx, or Nop when
// none is attached.
func ObserverFromContext(ctx context.Context) Provider {
	if ctx == nil {
		return Nop()
	}
	if p, ok := ctx.Value(observerKey{}).(Provider); ok && p != nil {
		return p
	}
	return Nop()
}

// ContextWithObserver returns a new context carrying the given Provider.
func ContextWithObserver(ctx context.Context, p Provider) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, observerKey{}, p)
}
