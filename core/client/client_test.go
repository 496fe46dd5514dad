package client

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leofalp/tabscrape/internal/utils"
	"github.com/leofalp/tabscrape/providers/ai"
	"github.com/leofalp/tabscrape/providers/observability"
	"github.com/leofalp/tabscrape/providers/observability/memobs"
)

type mockProvider struct {
	requests []ai.ChatRequest
	response *ai.ChatResponse
	err      error
}

func (m *mockProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	m.requests = append(m.requests, request)
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &ai.ChatResponse{Content: "ok", FinishReason: "stop"}, nil
}

func (m *mockProvider) Name() string { return "mock" }

func TestNew_RequiresProvider(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil provider")
	}
}

func TestNew_RejectsNilSendMiddleware(t *testing.T) {
	_, err := New(&mockProvider{}, WithMiddleware(MiddlewareConfig{}))
	if err == nil || !strings.Contains(err.Error(), "index 0") {
		t.Errorf("expected nil Send error, got %v", err)
	}
}

func TestSendMessage_BuildsRequest(t *testing.T) {
	provider := &mockProvider{}
	c, err := New(provider,
		WithDefaultModel("deepseek-r1:7b"),
		WithSystemPrompt("system"),
		WithGenerationConfig(ai.GenerationConfig{Temperature: utils.Ptr(0.0)}),
		WithResponseFormat(ai.ResponseFormat{Type: "json_object"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := c.SendMessage(context.Background(), "extract this")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}

	if len(provider.requests) != 1 {
		t.Fatalf("expected exactly one provider call, got %d", len(provider.requests))
	}
	req := provider.requests[0]
	if req.Model != "deepseek-r1:7b" || req.SystemPrompt != "system" {
		t.Errorf("unexpected request defaults: %+v", req)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != ai.RoleUser || req.Messages[0].Content != "extract this" {
		t.Errorf("unexpected messages: %+v", req.Messages)
	}
	if req.GenerationConfig == nil || *req.GenerationConfig.Temperature != 0 {
		t.Errorf("generation config not applied: %+v", req.GenerationConfig)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
		t.Errorf("response format not applied: %+v", req.ResponseFormat)
	}
}

func TestSendMessage_EmptyPrompt(t *testing.T) {
	provider := &mockProvider{}
	c, _ := New(provider)
	if _, err := c.SendMessage(context.Background(), ""); err == nil {
		t.Error("expected error for empty prompt")
	}
	if len(provider.requests) != 0 {
		t.Error("provider must not be called for an empty prompt")
	}
}

func TestSendMessage_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	c, _ := New(&mockProvider{err: boom})
	if _, err := c.SendMessage(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) MiddlewareConfig {
		return MiddlewareConfig{Send: func(next SendFunc) SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				order = append(order, name+">")
				resp, err := next(ctx, request)
				order = append(order, "<"+name)
				return resp, err
			}
		}}
	}

	c, err := New(&mockProvider{}, WithMiddleware(tag("a"), tag("b")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SendMessage(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}

	want := "a> b> <b <a"
	if got := strings.Join(order, " "); got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
}

func TestObserver_DefaultsToNop(t *testing.T) {
	c, _ := New(&mockProvider{})
	if c.Observer() == nil {
		t.Error("Observer() must never be nil")
	}
	if c.Provider().Name() != "mock" {
		t.Error("Provider() should return the wrapped provider")
	}
}

func TestObservabilityMiddleware_Success(t *testing.T) {
	rec := memobs.New()
	provider := &mockProvider{response: &ai.ChatResponse{
		Content:      "{}",
		FinishReason: "stop",
		Usage:        &ai.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
	}}
	c, _ := New(provider, WithObserver(rec), WithDefaultModel("m"))

	if _, err := c.SendMessage(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}

	spans := rec.Spans()
	if len(spans) != 1 || spans[0].Name != observability.SpanClientSend || !spans[0].Ended {
		t.Fatalf("unexpected spans: %+v", spans)
	}
	if spans[0].Status != observability.StatusOK {
		t.Errorf("span status = %v", spans[0].Status)
	}
	if rec.CounterValue(observability.MetricClientRequestCount) != 1 {
		t.Error("expected request counter to be incremented")
	}
	if len(rec.HistogramValues(observability.MetricClientRequestDuration)) != 1 {
		t.Error("expected one duration observation")
	}
	infos := rec.EntriesAt(memobs.LevelInfo)
	if len(infos) != 1 || infos[0].Message != "service request completed" {
		t.Fatalf("unexpected info logs: %+v", infos)
	}
	if v, _ := infos[0].Attr(observability.AttrLLMProvider); v != "mock" {
		t.Errorf("provider attribute = %v", v)
	}
}

func TestObservabilityMiddleware_Error(t *testing.T) {
	rec := memobs.New()
	c, _ := New(&mockProvider{err: errors.New("down")}, WithObserver(rec))

	if _, err := c.SendMessage(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}

	spans := rec.Spans()
	if spans[0].Status != observability.StatusError || len(spans[0].Errors) != 1 {
		t.Errorf("unexpected span: %+v", spans[0])
	}
	if len(rec.EntriesAt(memobs.LevelError)) != 1 {
		t.Error("expected an error log entry")
	}
}

func TestObservabilityMiddleware_InjectsContext(t *testing.T) {
	rec := memobs.New()
	var sawSpan, sawObserver bool
	probe := MiddlewareConfig{Send: func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			sawSpan = observability.SpanFromContext(ctx) != nil
			sawObserver = observability.ObserverFromContext(ctx) == observability.Provider(rec)
			return next(ctx, request)
		}
	}}

	c, _ := New(&mockProvider{}, WithObserver(rec), WithMiddleware(probe))
	if _, err := c.SendMessage(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	if !sawSpan || !sawObserver {
		t.Errorf("inner middleware saw span=%v observer=%v", sawSpan, sawObserver)
	}
}
