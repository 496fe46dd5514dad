package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/leofalp/tabscrape/providers/observability"
)

// MaxResponseBytes caps how much of a service response is read into memory.
const MaxResponseBytes = 32 << 20

// DoPostSync posts body as JSON to url and decodes a 2xx response into
// OutputStruct. A non-empty apiKey is sent as a bearer token.
//
// The response body is always closed; a close failure is logged through the
// observer carried by ctx and never replaces the primary error. Non-2xx
// responses return the *http.Response together with an error that embeds a
// truncated copy of the body.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string, body any) (*http.Response, *OutputStruct, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	timer := NewTimer()
	res, err := httpClient.Do(req)
	timer.Stop()
	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", timer.GetDuration()),
			)
		}
		return nil, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(ctx, res.Body, "response body", observability.String(observability.AttrHTTPURL, url))

	respBody, err := io.ReadAll(io.LimitReader(res.Body, MaxResponseBytes))
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
			observability.Duration("http.request.duration", timer.GetDuration()),
		)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, nil, fmt.Errorf("non-2xx status %d: %s", res.StatusCode, TruncateString(string(respBody), DefaultMaxStringLength))
	}

	var out OutputStruct
	if err := json.Unmarshal(respBody, &out); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateString(string(respBody), DefaultMaxStringLength))
	}
	return res, &out, nil
}

// CloseWithLog closes c and reports a failure as a warning on the observer
// found in ctx.
func CloseWithLog(ctx context.Context, c io.Closer, what string, attrs ...observability.Attribute) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		attrs = append(attrs, observability.Error(err), observability.String("resource", what))
		observability.ObserverFromContext(ctx).Warn(ctx, "failed to close "+what, attrs...)
	}
}

// Since is a small helper for histogram observations in seconds.
func Since(start time.Time) float64 {
	return time.Since(start).Seconds()
}
