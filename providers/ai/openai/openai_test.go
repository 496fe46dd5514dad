package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leofalp/tabscrape/internal/utils"
	"github.com/leofalp/tabscrape/providers/ai"
)

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_API_BASE_URL", "http://localhost:11434/v1/")

	p := New()
	if p.apiKey != "sk-test" {
		t.Errorf("apiKey = %q", p.apiKey)
	}
	if p.BaseURL() != "http://localhost:11434/v1" {
		t.Errorf("BaseURL() = %q", p.BaseURL())
	}
	if p.Name() != "openai" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestNew_DefaultBaseURL(t *testing.T) {
	t.Setenv("OPENAI_API_BASE_URL", "")
	if got := New().BaseURL(); got != defaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", got, defaultBaseURL)
	}
}

func TestSendMessage_MissingKeyForHostedAPI(t *testing.T) {
	p := New().WithAPIKey("").WithBaseURL(defaultBaseURL)
	_, err := p.SendMessage(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestSendMessage_Success(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != chatCompletionsEndpoint {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		fmt.Fprint(w, `{
			"id": "cmpl-1",
			"model": "deepseek-r1:7b",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "<think>rows look tabular</think>\n`+"```json\\n{\\\"data\\\":[]}\\n```"+`"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	}))
	defer server.Close()

	p := New().WithAPIKey("").WithBaseURL(server.URL).WithHttpClient(server.Client())
	resp, err := p.SendMessage(context.Background(), ai.ChatRequest{
		Model:            "deepseek-r1:7b",
		SystemPrompt:     "be terse",
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: "extract"}},
		GenerationConfig: &ai.GenerationConfig{Temperature: utils.Ptr(0.0), MaxTokens: 256},
		ResponseFormat:   &ai.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "extract" {
		t.Errorf("unexpected wire messages: %+v", got.Messages)
	}
	if got.Temperature == nil || *got.Temperature != 0 || got.MaxTokens == nil || *got.MaxTokens != 256 {
		t.Errorf("generation config not forwarded: %+v", got)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("response format not forwarded: %+v", got.ResponseFormat)
	}

	if resp.Content != "```json\n{\"data\":[]}\n```" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Reasoning != "rows look tabular" {
		t.Errorf("Reasoning = %q", resp.Reasoning)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 15 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestSendMessage_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"x","choices":[]}`)
	}))
	defer server.Close()

	p := New().WithBaseURL(server.URL).WithHttpClient(server.Client())
	if _, err := p.SendMessage(context.Background(), ai.ChatRequest{}); err == nil {
		t.Error("expected error when no choices are returned")
	}
}

func TestSendMessage_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := New().WithBaseURL(server.URL).WithHttpClient(server.Client())
	if _, err := p.SendMessage(context.Background(), ai.ChatRequest{}); err == nil {
		t.Error("expected error for 429 response")
	}
}

func TestChatCompletionToGeneric_ReasoningFieldOnly(t *testing.T) {
	resp := chatCompletionToGeneric(chatCompletionResponse{
		Choices: []chatChoice{{Message: chatResponseMessage{Reasoning: "<think>a</think>{\"data\":[]}"}}},
	})
	if resp.Content != "{\"data\":[]}" || resp.Reasoning != "a" {
		t.Errorf("got content=%q reasoning=%q", resp.Content, resp.Reasoning)
	}
}

func TestRequiresAPIKey(t *testing.T) {
	tests := map[string]bool{
		"https://api.openai.com/v1":    true,
		"https://openrouter.ai/api/v1": true,
		"http://localhost:11434/v1":    false,
	}
	for url, want := range tests {
		if got := requiresAPIKey(url); got != want {
			t.Errorf("requiresAPIKey(%q) = %v, want %v", url, got, want)
		}
	}
}
