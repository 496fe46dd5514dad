package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leofalp/tabscrape/providers/ai"
)

type mockSendSequence struct {
	errors    []error
	callCount int
}

func (m *mockSendSequence) next(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
	index := m.callCount
	m.callCount++
	if index < len(m.errors) && m.errors[index] != nil {
		return nil, m.errors[index]
	}
	return &ai.ChatResponse{Content: "ok", FinishReason: "stop"}, nil
}

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestRetry_SucceedsAfterTransientErrors(t *testing.T) {
	seq := &mockSendSequence{errors: []error{
		fmt.Errorf("non-2xx status 503: loading"),
		fmt.Errorf("non-2xx status 429: slow down"),
	}}
	send := NewRetryMiddleware(fastRetry(3)).Send(seq.next)

	resp, err := send(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.Content != "ok" || seq.callCount != 3 {
		t.Errorf("content=%q calls=%d", resp.Content, seq.callCount)
	}
}

func TestRetry_NonRetryableReturnsImmediately(t *testing.T) {
	bad := errors.New("non-2xx status 400: bad request")
	seq := &mockSendSequence{errors: []error{bad}}
	send := NewRetryMiddleware(fastRetry(3)).Send(seq.next)

	_, err := send(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, bad) || seq.callCount != 1 {
		t.Errorf("err=%v calls=%d", err, seq.callCount)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	last := errors.New("non-2xx status 502: gateway")
	seq := &mockSendSequence{errors: []error{last, last, last}}
	send := NewRetryMiddleware(fastRetry(2)).Send(seq.next)

	_, err := send(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, ErrRetryExhausted) || !errors.Is(err, last) {
		t.Errorf("expected exhausted error wrapping last error, got %v", err)
	}
	if seq.callCount != 3 {
		t.Errorf("callCount = %d, want 3", seq.callCount)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seq := &mockSendSequence{errors: []error{errors.New("non-2xx status 500: x")}}
	send := NewRetryMiddleware(RetryConfig{MaxRetries: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour}).Send(seq.next)

	time.AfterFunc(10*time.Millisecond, cancel)
	_, err := send(ctx, ai.ChatRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if seq.callCount != 1 {
		t.Errorf("callCount = %d, want 1", seq.callCount)
	}
}

func TestDefaultRetryableFunc(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("non-2xx status 503: x"), true},
		{errors.New("non-2xx status 504: x"), true},
		{errors.New("non-2xx status 404: x"), false},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), true},
		{errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		if got := defaultRetryableFunc(tt.err); got != tt.want {
			t.Errorf("defaultRetryableFunc(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestComputeBackoff_Capped(t *testing.T) {
	cfg := RetryConfig{}
	applyRetryDefaults(&cfg)
	cfg.JitterFraction = 0.0001

	if got := computeBackoff(cfg, 10); got > time.Duration(float64(cfg.MaxBackoff)*1.001) {
		t.Errorf("backoff %v exceeds cap %v", got, cfg.MaxBackoff)
	}
	if got := computeBackoff(cfg, 0); got < cfg.InitialBackoff {
		t.Errorf("first backoff %v below initial %v", got, cfg.InitialBackoff)
	}
}
