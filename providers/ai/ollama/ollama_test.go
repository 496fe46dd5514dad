package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leofalp/tabscrape/internal/utils"
	"github.com/leofalp/tabscrape/providers/ai"
)

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "127.0.0.1:11500")
	if got := New().BaseURL(); got != "http://127.0.0.1:11500" {
		t.Errorf("BaseURL() = %q", got)
	}

	t.Setenv("OLLAMA_HOST", "")
	if got := New().BaseURL(); got != DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", got, DefaultBaseURL)
	}
}

func TestSendMessage(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != generateEndpoint {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("ollama requests must not carry a bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"model":"deepseek-r1:7b","created_at":"2026-10-19T10:00:00Z",`+
			`"response":"<think>two rows</think>\n{\"data\":[{\"a\":1}]}",`+
			`"done":true,"prompt_eval_count":30,"eval_count":12}`)
	}))
	defer server.Close()

	p := New().WithBaseURL(server.URL).WithHttpClient(server.Client())
	resp, err := p.SendMessage(context.Background(), ai.ChatRequest{
		SystemPrompt:     "sys",
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: "prompt body"}},
		GenerationConfig: &ai.GenerationConfig{Temperature: utils.Ptr(0.1)},
		ResponseFormat:   &ai.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if got.Model != DefaultModel || got.Prompt != "prompt body" || got.System != "sys" || got.Stream {
		t.Errorf("unexpected request: %+v", got)
	}
	if got.Format != "json" {
		t.Errorf("Format = %q, want json", got.Format)
	}
	if got.Options == nil || got.Options.Temperature == nil || *got.Options.Temperature != 0.1 {
		t.Errorf("options not forwarded: %+v", got.Options)
	}

	if resp.Content != `{"data":[{"a":1}]}` || resp.Reasoning != "two rows" {
		t.Errorf("content=%q reasoning=%q", resp.Content, resp.Reasoning)
	}
	if resp.FinishReason != "stop" || resp.Usage.TotalTokens != 42 || resp.Created == 0 {
		t.Errorf("unexpected metadata: %+v", resp)
	}
}

func TestSendMessage_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'x' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	p := New().WithBaseURL(server.URL).WithHttpClient(server.Client())
	_, err := p.SendMessage(context.Background(), ai.ChatRequest{Model: "x"})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}
