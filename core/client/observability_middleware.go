package client

import (
	"context"

	"github.com/leofalp/tabscrape/internal/utils"
	"github.com/leofalp/tabscrape/providers/ai"
	"github.com/leofalp/tabscrape/providers/observability"
)

// responsePreviewLen bounds the response excerpt attached to debug logs.
const responsePreviewLen = 200

// NewObservabilityMiddleware records a span, a request counter and a
// duration histogram for every call, and logs its outcome.
//
// The span and the observer are injected into the context before calling
// next, so providers and utils.DoPostSync can attach events through
// [observability.SpanFromContext] and [observability.ObserverFromContext].
// [New] installs it as the outermost wrapper when [WithObserver] is given,
// so it observes the final outcome after any retry or timeout middleware.
func NewObservabilityMiddleware(observer observability.Provider, providerName, defaultModel string) MiddlewareConfig {
	return MiddlewareConfig{Send: func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			model := effectiveModel(request.Model, defaultModel)
			labels := []observability.Attribute{
				observability.String(observability.AttrLLMProvider, providerName),
				observability.String(observability.AttrLLMModel, model),
			}

			ctx, span := observer.StartSpan(ctx, observability.SpanClientSend, labels...)
			ctx = observability.ContextWithObserver(ctx, observer)

			observer.Debug(ctx, "service request", append(labels,
				observability.Int(observability.AttrTextLength, len(request.UserText())),
			)...)

			timer := utils.NewTimer()
			response, err := next(ctx, request)
			timer.Stop()

			observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, timer.GetDuration().Seconds(), labels...)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(observability.StatusError, "service request failed")
				span.End()

				observer.Error(ctx, "service request failed", append(labels,
					observability.Error(err),
					observability.Duration(observability.AttrDuration, timer.GetDuration()),
				)...)
				observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
					append(labels, observability.String(observability.AttrStatus, "error"))...)
				return nil, err
			}

			attrs := append(labels,
				observability.String(observability.AttrLLMFinishReason, response.FinishReason),
				observability.Duration(observability.AttrDuration, timer.GetDuration()),
			)
			if response.Usage != nil {
				usage := []observability.Attribute{
					observability.Int(observability.AttrLLMTokensPrompt, response.Usage.PromptTokens),
					observability.Int(observability.AttrLLMTokensCompletion, response.Usage.CompletionTokens),
				}
				span.SetAttributes(usage...)
				attrs = append(attrs, usage...)
			}

			observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
				append(labels, observability.String(observability.AttrStatus, "success"))...)
			observer.Info(ctx, "service request completed", attrs...)
			observer.Debug(ctx, "service response",
				observability.String(observability.AttrResponseContent, utils.TruncateString(response.Content, responsePreviewLen)),
			)

			span.SetStatus(observability.StatusOK, "")
			span.End()
			return response, nil
		}
	}}
}

func effectiveModel(requestModel, defaultModel string) string {
	if requestModel != "" {
		return requestModel
	}
	return defaultModel
}
