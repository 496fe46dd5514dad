package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// Format represents the output format for logs.
type Format string

const (
	// FormatCompact is a single line with JSON attributes:
	// 2026-10-19 10:40:35 DEBUG Message → {"key":"value"}
	FormatCompact Format = "compact"

	// FormatText is a single line with logfmt-style attributes:
	// 2026-10-19 10:40:35 DEBUG Message key=value
	FormatText Format = "text"

	// FormatJSON is one JSON object per line, for log aggregation.
	FormatJSON Format = "json"
)

// LevelTrace sits below slog.LevelDebug.
const LevelTrace = slog.LevelDebug - 4

// ParseFormat parses a format string. Unknown values yield FormatCompact.
func ParseFormat(s string) Format {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "text", "pretty":
		return FormatText
	case "json":
		return FormatJSON
	default:
		return FormatCompact
	}
}

// GetFormatFromEnv reads TABSCRAPE_LOG_FORMAT, then LOG_FORMAT.
func GetFormatFromEnv() Format {
	if format := os.Getenv("TABSCRAPE_LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	return FormatCompact
}

// String returns the string representation of the Format.
func (f Format) String() string {
	return string(f)
}

// ParseLogLevel converts a level name to slog.Level. Unknown names yield INFO.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogLevelFromEnv reads TABSCRAPE_LOG_LEVEL, then LOG_LEVEL.
func GetLogLevelFromEnv() slog.Level {
	if level := os.Getenv("TABSCRAPE_LOG_LEVEL"); level != "" {
		return ParseLogLevel(level)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return ParseLogLevel(level)
	}
	return slog.LevelInfo
}
