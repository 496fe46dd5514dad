package openai

import (
	"strings"

	"github.com/leofalp/tabscrape/providers/ai"
)

/*
	CHAT COMPLETIONS API - INPUT
*/

type chatCompletionRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    *float64            `json:"temperature,omitempty"`
	TopP           *float64            `json:"top_p,omitempty"`
	MaxTokens      *int                `json:"max_tokens,omitempty"`
	Seed           *int                `json:"seed,omitempty"`
	Stream         bool                `json:"stream"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"` // "text", "json_object"
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content,omitempty"`
	Refusal   string `json:"refusal,omitempty"`
	Reasoning string `json:"reasoning,omitempty"` // OpenRouter
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

/*
	CONVERSION FUNCTIONS
*/

func requestToChatCompletion(request ai.ChatRequest) chatCompletionRequest {
	req := chatCompletionRequest{Model: request.Model}

	if request.SystemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{Role: string(ai.RoleSystem), Content: request.SystemPrompt})
	}
	for _, m := range request.Messages {
		req.Messages = append(req.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	if gc := request.GenerationConfig; gc != nil {
		req.Temperature = gc.Temperature
		req.TopP = gc.TopP
		req.Seed = gc.Seed
		if gc.MaxTokens > 0 {
			maxTokens := gc.MaxTokens
			req.MaxTokens = &maxTokens
		}
	}
	if request.ResponseFormat != nil && request.ResponseFormat.Type != "" {
		req.ResponseFormat = &chatResponseFormat{Type: request.ResponseFormat.Type}
	}
	return req
}

func chatCompletionToGeneric(resp chatCompletionResponse) *ai.ChatResponse {
	choice := resp.Choices[0]

	content := strings.TrimSpace(choice.Message.Content)
	reasoning := strings.TrimSpace(choice.Message.Reasoning)
	if content == "" && reasoning != "" {
		// some gateways put the whole answer, think tags included, in reasoning
		content, reasoning = reasoning, ""
	}

	answer, inContent := ai.SplitReasoning(content)
	if inContent != "" {
		if reasoning != "" {
			reasoning += "\n"
		}
		reasoning += inContent
	}

	out := &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Created:      resp.Created,
		Content:      answer,
		FinishReason: choice.FinishReason,
		Refusal:      choice.Message.Refusal,
		Reasoning:    reasoning,
	}
	if resp.Usage != nil {
		out.Usage = &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out
}
