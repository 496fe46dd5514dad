package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/tabscrape/core/client"
	"github.com/leofalp/tabscrape/internal/utils"
	"github.com/leofalp/tabscrape/providers/ai"
)

// LogLevel controls how much detail the logging middleware emits per request.
type LogLevel int

const (
	// LogLevelMinimal logs the model, duration and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds prompt length and finish reason.
	LogLevelStandard

	// LogLevelVerbose adds the prompt and the response, each truncated.
	// Scraped pages end up in the log; keep it to local debugging.
	LogLevelVerbose
)

const truncateLen = 500

// NewLoggingMiddleware logs every call before and after it reaches the
// provider. logger must not be nil.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.MiddlewareConfig {
	return client.MiddlewareConfig{Send: func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			logger.InfoContext(ctx, "llm send", buildRequestAttrs(request, level)...)

			start := time.Now()
			response, err := next(ctx, request)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "llm send failed",
					slog.String("model", request.Model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "llm send completed", buildResponseAttrs(response, elapsed, level)...)
			return response, nil
		}
	}}
}

func buildRequestAttrs(request ai.ChatRequest, level LogLevel) []any {
	attrs := []any{slog.String("model", request.Model)}

	prompt := request.UserText()
	if level >= LogLevelStandard {
		attrs = append(attrs, slog.Int("prompt_length", len(prompt)))
	}
	if level >= LogLevelVerbose {
		attrs = append(attrs, slog.String("prompt", utils.TruncateString(prompt, truncateLen)))
	}
	return attrs
}

func buildResponseAttrs(response *ai.ChatResponse, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", response.Model),
		slog.Duration("duration", elapsed),
	}

	if response.Usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", response.Usage.PromptTokens),
			slog.Int("completion_tokens", response.Usage.CompletionTokens),
			slog.Int("total_tokens", response.Usage.TotalTokens),
		)
	}
	if level >= LogLevelStandard && response.FinishReason != "" {
		attrs = append(attrs, slog.String("finish_reason", response.FinishReason))
	}
	if level >= LogLevelVerbose && response.Content != "" {
		attrs = append(attrs, slog.String("response_content", utils.TruncateString(response.Content, truncateLen)))
	}
	return attrs
}
