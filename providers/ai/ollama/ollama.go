// Package ollama implements ai.Provider against a local Ollama server's
// native /api/generate endpoint.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/leofalp/tabscrape/internal/utils"
	"github.com/leofalp/tabscrape/providers/ai"
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "deepseek-r1:7b"
	DefaultTimeout = 5 * time.Minute

	generateEndpoint = "/api/generate"
)

// Provider implements ai.Provider for Ollama.
type Provider struct {
	baseURL string
	client  *http.Client
}

var _ ai.Provider = (*Provider)(nil)

// New creates a provider pointed at OLLAMA_HOST, or the local default.
func New() *Provider {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
	}
}

// WithBaseURL sets the server root
func (p *Provider) WithBaseURL(baseURL string) *Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

// WithHttpClient sets a custom HTTP client
func (p *Provider) WithHttpClient(httpClient *http.Client) *Provider {
	p.client = httpClient
	return p
}

// Name implements ai.Provider.
func (p *Provider) Name() string {
	return "ollama"
}

// BaseURL returns the configured server root.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	System  string   `json:"system,omitempty"`
	Format  string   `json:"format,omitempty"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Seed        *int     `json:"seed,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Model           string    `json:"model"`
	CreatedAt       time.Time `json:"created_at"`
	Response        string    `json:"response"`
	Thinking        string    `json:"thinking,omitempty"`
	Done            bool      `json:"done"`
	DoneReason      string    `json:"done_reason,omitempty"`
	PromptEvalCount int       `json:"prompt_eval_count,omitempty"`
	EvalCount       int       `json:"eval_count,omitempty"`
}

// SendMessage implements ai.Provider. User messages are concatenated into a
// single prompt.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	model := request.Model
	if model == "" {
		model = DefaultModel
	}

	body := generateRequest{
		Model:  model,
		Prompt: request.UserText(),
		System: request.SystemPrompt,
		Stream: false,
	}
	if request.ResponseFormat != nil && request.ResponseFormat.Type == "json_object" {
		body.Format = "json"
	}
	if gc := request.GenerationConfig; gc != nil {
		body.Options = &options{
			NumPredict:  gc.MaxTokens,
			Temperature: gc.Temperature,
			TopP:        gc.TopP,
			Seed:        gc.Seed,
		}
	}

	_, resp, err := utils.DoPostSync[generateResponse](ctx, p.client, p.baseURL+generateEndpoint, "", body)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	answer, reasoning := ai.SplitReasoning(strings.TrimSpace(resp.Response))
	if thinking := strings.TrimSpace(resp.Thinking); thinking != "" {
		if reasoning != "" {
			reasoning = thinking + "\n" + reasoning
		} else {
			reasoning = thinking
		}
	}

	finish := resp.DoneReason
	if finish == "" && resp.Done {
		finish = "stop"
	}

	out := &ai.ChatResponse{
		Model:        resp.Model,
		Content:      answer,
		Reasoning:    reasoning,
		FinishReason: finish,
		Usage: &ai.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}
	if !resp.CreatedAt.IsZero() {
		out.Created = resp.CreatedAt.Unix()
	}
	return out, nil
}
