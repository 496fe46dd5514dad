package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		name string
		attr Attribute
		key  string
		want any
	}{
		{"String", String("k", "v"), "k", "v"},
		{"Int", Int("n", 3), "n", 3},
		{"Int64", Int64("n", 4), "n", int64(4)},
		{"Float64", Float64("f", 1.5), "f", 1.5},
		{"Bool", Bool("b", true), "b", true},
		{"Duration", Duration("d", time.Second), "d", time.Second},
		{"Error", Error(errors.New("boom")), AttrError, "boom"},
		{"NilError", Error(nil), AttrError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key || tt.attr.Value != tt.want {
				t.Errorf("got %v=%v, want %v=%v", tt.attr.Key, tt.attr.Value, tt.key, tt.want)
			}
		})
	}
}

func TestStatusCodeString(t *testing.T) {
	if StatusOK.String() != "ok" || StatusError.String() != "error" || StatusUnset.String() != "unset" {
		t.Error("unexpected StatusCode names")
	}
}

func TestNopProvider(t *testing.T) {
	p := Nop()
	ctx := context.Background()

	gotCtx, span := p.StartSpan(ctx, "x", String("k", "v"))
	if gotCtx != ctx {
		t.Error("Nop StartSpan should return the input context")
	}
	span.SetAttributes(Int("n", 1))
	span.SetStatus(StatusOK, "")
	span.RecordError(errors.New("ignored"))
	span.AddEvent("e")
	span.End()

	p.Counter("c").Add(ctx, 1)
	p.Histogram("h").Record(ctx, 1)
	p.Trace(ctx, "t")
	p.Debug(ctx, "d")
	p.Info(ctx, "i")
	p.Warn(ctx, "w")
	p.Error(ctx, "e")
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	p := Nop()
	if OrNop(p) != p {
		t.Error("OrNop should return a non-nil provider unchanged")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	if SpanFromContext(ctx) != nil {
		t.Error("expected no span in empty context")
	}
	if ObserverFromContext(ctx) == nil {
		t.Error("ObserverFromContext should fall back to Nop")
	}

	_, span := Nop().StartSpan(ctx, "s")
	ctx = ContextWithSpan(ctx, span)
	if SpanFromContext(ctx) != span {
		t.Error("expected span round-trip through context")
	}

	var p Provider = Nop()
	ctx = ContextWithObserver(ctx, p)
	if ObserverFromContext(ctx) != p {
		t.Error("expected observer round-trip through context")
	}
}
