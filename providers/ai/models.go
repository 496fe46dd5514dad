package ai

import "strings"

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a request to the generation service
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`
	Messages         []Message         `json:"messages"`
	SystemPrompt     string            `json:"system_prompt,omitempty"`
	ResponseFormat   *ResponseFormat   `json:"response_format,omitempty"`
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`
}

// GenerationConfig holds optional sampling parameters. Nil pointers leave
// the service default in place.
type GenerationConfig struct {
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Seed        *int     `json:"seed,omitempty"`
}

// ResponseFormat asks the service for a given output shape.
type ResponseFormat struct {
	Type string `json:"type,omitempty"` // "text" or "json_object"
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the completed response from the service
type ChatResponse struct {
	Id           string `json:"id,omitempty"`
	Model        string `json:"model"`
	Created      int64  `json:"created,omitempty"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
	Refusal      string `json:"refusal,omitempty"`
	Reasoning    string `json:"reasoning,omitempty"` // chain-of-thought emitted by reasoning models
}

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

/*
	##### HELPERS #####
*/

const (
	thinkStartTag = "<think>"
	thinkEndTag   = "</think>"
)

// SplitReasoning separates a <think>...</think> block from the answer.
// Models such as deepseek-r1 sometimes omit the opening tag, in which case
// everything before the closing tag is reasoning. Content without a closing
// tag is returned unchanged as the answer.
func SplitReasoning(content string) (answer, reasoning string) {
	end := strings.Index(content, thinkEndTag)
	if end == -1 {
		return content, ""
	}

	start := strings.Index(content, thinkStartTag)
	reasonFrom := 0
	cutFrom := 0
	if start != -1 && start < end {
		reasonFrom = start + len(thinkStartTag)
		cutFrom = start
	}

	reasoning = strings.TrimSpace(content[reasonFrom:end])
	answer = strings.TrimSpace(content[:cutFrom] + content[end+len(thinkEndTag):])
	return answer, reasoning
}

// UserText concatenates the content of every user message, separated by a
// blank line. Adapters with a single-prompt endpoint use it.
func (r ChatRequest) UserText() string {
	parts := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role == RoleUser && m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
