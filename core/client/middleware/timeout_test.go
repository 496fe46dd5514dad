package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leofalp/tabscrape/providers/ai"
)

func TestTimeout_SetsDeadline(t *testing.T) {
	var hadDeadline bool
	send := NewTimeoutMiddleware(time.Second).Send(func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		_, hadDeadline = ctx.Deadline()
		return &ai.ChatResponse{}, nil
	})

	if _, err := send(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatal(err)
	}
	if !hadDeadline {
		t.Error("expected a deadline on the inner context")
	}
}

func TestTimeout_Expires(t *testing.T) {
	send := NewTimeoutMiddleware(5 * time.Millisecond).Send(func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := send(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestTimeout_DisabledForNonPositive(t *testing.T) {
	send := NewTimeoutMiddleware(0).Send(func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		if _, ok := ctx.Deadline(); ok {
			t.Error("expected no deadline when timeout is disabled")
		}
		return &ai.ChatResponse{}, nil
	})
	if _, err := send(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatal(err)
	}
}
