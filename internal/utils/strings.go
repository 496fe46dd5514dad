package utils

import (
	"fmt"
	"unicode/utf8"
)

// DefaultMaxStringLength is the default maximum length for truncated strings
const DefaultMaxStringLength = 500

// TruncateString shortens s to at most maxLen runes and appends the original
// rune count. A non-positive maxLen means DefaultMaxStringLength.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	total := utf8.RuneCountInString(s)
	if total <= maxLen {
		return s
	}
	runes := []rune(s)
	return fmt.Sprintf("%s... (truncated, total: %d chars)", string(runes[:maxLen]), total)
}
