// Package slogobs provides an observability.Provider backed by log/slog.
//
// Spans, counters and histograms are rendered as debug log events; regular
// log calls map onto slog levels, with TRACE sitting below DEBUG. Output can
// be compact (one line, JSON attributes), text (key=value) or JSON. Format and
// level default to TABSCRAPE_LOG_FORMAT / TABSCRAPE_LOG_LEVEL, falling back to
// LOG_FORMAT / LOG_LEVEL.
package slogobs
