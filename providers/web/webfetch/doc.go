// Package webfetch loads a web page over HTTP/HTTPS and returns its raw
// markup once the page is ready.
//
// URL normalisation, redirect following, response-size limiting, a
// readiness check on the parsed document, and context-aware cancellation
// are handled by [Fetcher.Fetch]. Every failure wraps [ErrFetch], so callers
// can stop the pipeline before extraction begins.
//
// Scripts are not executed: content rendered client-side is not seen.
package webfetch
