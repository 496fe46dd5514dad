package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/leofalp/tabscrape/internal/utils"
	"github.com/leofalp/tabscrape/providers/ai"
)

// DefaultModel is used when the caller names no model.
const DefaultModel = "gpt-4o-mini"

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// ErrMissingAPIKey is returned when a hosted endpoint is called without a key.
var ErrMissingAPIKey = errors.New("openai: API key is not set")

// Provider implements ai.Provider for OpenAI-compatible endpoints.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.Provider = (*Provider)(nil)

// New creates a provider configured from the environment.
func New() *Provider {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider
func (p *Provider) WithAPIKey(apiKey string) *Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API
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
	return "openai"
}

// BaseURL returns the configured endpoint root.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

// SendMessage implements ai.Provider.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" && requiresAPIKey(p.baseURL) {
		return nil, ErrMissingAPIKey
	}

	httpResponse, resp, err := utils.DoPostSync[chatCompletionResponse](ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, requestToChatCompletion(request))
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("openai: empty response: %s", httpResponse.Status)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices in response")
	}

	return chatCompletionToGeneric(*resp), nil
}

// requiresAPIKey reports whether the endpoint is a hosted service that
// rejects anonymous calls. Local compatibility layers do not need a key.
func requiresAPIKey(baseURL string) bool {
	baseURL = strings.ToLower(baseURL)
	return strings.Contains(baseURL, "api.openai.com") || strings.Contains(baseURL, "openrouter.ai")
}
