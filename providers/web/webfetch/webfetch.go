package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/leofalp/tabscrape/internal/utils"
	"github.com/leofalp/tabscrape/providers/observability"
)

const (
	// DefaultTimeout is the default page-load timeout
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent is the default User-Agent header value
	DefaultUserAgent = "tabscrape/1.0"
	// DefaultReadySelector is the element that must be present and non-empty
	DefaultReadySelector = "body"
	// MaxBodySize is the maximum response body size (10MB)
	MaxBodySize = 10 * 1024 * 1024
	// MaxRedirects caps how many redirects are followed
	MaxRedirects = 10
	// DialTimeout is the maximum time to wait for a TCP connection
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the maximum time to wait for TLS handshake
	TLSHandshakeTimeout = 10 * time.Second
	// IdleConnTimeout is the maximum time an idle connection can be reused
	IdleConnTimeout = 90 * time.Second
)

var (
	// ErrFetch wraps every failure to obtain page markup.
	ErrFetch = errors.New("fetch failed")
	// ErrNotReady means the page loaded but the ready selector matched nothing with content.
	ErrNotReady = errors.New("page not ready")
)

// Input describes one page load. Zero fields fall back to the Fetcher's defaults.
type Input struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Output is the loaded page. URL reflects the final destination after redirects.
type Output struct {
	URL        string
	StatusCode int
	HTML       string
}

// Fetcher loads pages with a shared HTTP client.
type Fetcher struct {
	client        *http.Client
	timeout       time.Duration
	userAgent     string
	readySelector string
	observer      observability.Provider
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the default page-load timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithReadySelector sets the CSS selector that must match a non-empty
// element before the page counts as loaded.
func WithReadySelector(selector string) Option {
	return func(f *Fetcher) {
		if selector != "" {
			f.readySelector = selector
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its redirect policy is kept as is.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithObserver reports page loads to p.
func WithObserver(p observability.Provider) Option {
	return func(f *Fetcher) {
		f.observer = p
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:       DefaultTimeout,
		userAgent:     DefaultUserAgent,
		readySelector: DefaultReadySelector,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = newHTTPClient()
	}
	f.observer = observability.OrNop(f.observer)
	return f
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: TLSHandshakeTimeout,
			IdleConnTimeout:     IdleConnTimeout,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			ForceAttemptHTTP2:   true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("too many redirects (>%d)", MaxRedirects)
			}
			return nil
		},
	}
}

// Fetch loads a page with a default Fetcher.
func Fetch(ctx context.Context, in Input) (Output, error) {
	return New().Fetch(ctx, in)
}

// NormalizeURL trims u and prepends "https://" when no scheme is given.
// Schemes other than http and https are rejected.
func NormalizeURL(u string) (string, error) {
	u = strings.TrimSpace(u)
	if u == "" {
		return "", errors.New("URL cannot be empty")
	}
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u, nil
	}
	if i := strings.Index(u, ":"); i > 0 && !strings.Contains(u[:i], ".") && !isPort(u[i+1:]) {
		return "", fmt.Errorf("unsupported scheme %q", u[:i])
	}
	return "https://" + u, nil
}

// isPort reports whether s starts with a port number, as in "localhost:8080/x".
func isPort(s string) bool {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n > 0 && (n == len(s) || s[n] == '/')
}

// Fetch loads in.URL and returns its markup. The page must answer 200 OK
// within the timeout, fit in MaxBodySize, and contain a non-empty element
// matching the ready selector. The response body is released on every path.
func (f *Fetcher) Fetch(ctx context.Context, in Input) (out Output, err error) {
	url, err := NormalizeURL(in.URL)
	if err != nil {
		return Output{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	timeout := f.timeout
	if in.Timeout > 0 {
		timeout = in.Timeout
	}
	userAgent := f.userAgent
	if in.UserAgent != "" {
		userAgent = in.UserAgent
	}

	obs := f.observer
	ctx, span := obs.StartSpan(ctx, observability.SpanFetchPage,
		observability.String(observability.AttrFetchURL, url),
	)
	start := time.Now()
	defer func() {
		obs.Histogram(observability.MetricFetchDuration).Record(ctx, utils.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "fetch failed")
			obs.Error(ctx, "page fetch failed", observability.Error(err), observability.String(observability.AttrFetchURL, url))
		} else {
			span.SetStatus(observability.StatusOK, "")
			obs.Info(ctx, "page fetched",
				observability.String(observability.AttrFetchURL, out.URL),
				observability.Int(observability.AttrHTTPResponseBodySize, len(out.HTML)),
			)
		}
		span.End()
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodGet, url, nil)
	if err != nil {
		return Output{}, fmt.Errorf("%w: failed to create request: %w", ErrFetch, err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		if ctxWithTimeout.Err() != nil {
			return Output{}, fmt.Errorf("%w: request timeout or canceled: %w", ErrFetch, err)
		}
		return Output{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer utils.CloseWithLog(ctx, resp.Body, "response body", observability.String(observability.AttrFetchURL, url))

	span.SetAttributes(observability.Int(observability.AttrHTTPStatusCode, resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("%w: unexpected status code %d", ErrFetch, resp.StatusCode)
	}

	// Read in a goroutine so cancellation is honoured during slow reads.
	type readResult struct {
		data []byte
		err  error
	}
	readChan := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
		readChan <- readResult{data: data, err: err}
	}()

	var body []byte
	select {
	case <-ctxWithTimeout.Done():
		return Output{}, fmt.Errorf("%w: timeout while reading response body: %w", ErrFetch, ctxWithTimeout.Err())
	case result := <-readChan:
		if result.err != nil {
			return Output{}, fmt.Errorf("%w: failed to read response body: %w", ErrFetch, result.err)
		}
		body = result.data
	}
	if len(body) > MaxBodySize {
		return Output{}, fmt.Errorf("%w: response body exceeds maximum size of %d bytes", ErrFetch, MaxBodySize)
	}

	html := string(body)
	if err := checkReady(html, f.readySelector); err != nil {
		return Output{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	return Output{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       html,
	}, nil
}

// checkReady parses html and requires selector to match an element that
// has children or text.
func checkReady(html, selector string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse markup: %w", err)
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return fmt.Errorf("%w: no element matches %q", ErrNotReady, selector)
	}
	if sel.Children().Length() == 0 && strings.TrimSpace(sel.Text()) == "" {
		return fmt.Errorf("%w: %q is empty", ErrNotReady, selector)
	}
	return nil
}
