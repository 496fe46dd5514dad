// Package chunk bounds long page text into word-aligned segments.
//
// A chunk never splits a word and never holds an empty segment. Lengths are
// counted in runes over the words only; the single spaces that join words
// inside a chunk are not counted.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the default per-chunk limit, in characters.
const DefaultMaxLength = 25000

// Split breaks text into chunks whose summed word length stays below
// maxLength. A word that alone reaches the limit forms its own chunk.
// A non-positive maxLength means DefaultMaxLength. Empty or whitespace-only
// text yields no chunks.
func Split(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	current := make([]string, 0, 64)
	currentLength := 0

	for _, word := range words {
		wordLength := utf8.RuneCountInString(word)
		if currentLength+wordLength < maxLength {
			current = append(current, word)
			currentLength += wordLength
			continue
		}
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}
		current = append(current[:0], word)
		currentLength = wordLength
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// Join recombines chunks into one body, newline separated.
func Join(chunks []string) string {
	return strings.Join(chunks, "\n")
}

// Chunker carries a configured limit.
type Chunker struct {
	maxLength int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxLength sets the per-chunk limit. Non-positive values are ignored.
func WithMaxLength(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxLength = n
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxLength returns the configured limit.
func (c *Chunker) MaxLength() int {
	return c.maxLength
}

// Split is [Split] with the configured limit.
func (c *Chunker) Split(text string) []string {
	return Split(text, c.maxLength)
}

// Body splits text and rejoins the chunks into a single body. The result
// keeps every word in order with whitespace normalised.
func (c *Chunker) Body(text string) string {
	return Join(c.Split(text))
}
