// Package cleaner reduces page markup to the plain text handed to the
// extraction pipeline.
package cleaner

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ErrEmptyContent means the markup had no body content left after cleaning.
var ErrEmptyContent = errors.New("no content to clean")

// Mode selects the cleaning strategy.
type Mode string

const (
	// ModeText drops non-content tags and keeps the visible text, one
	// trimmed line per source line.
	ModeText Mode = "text"
	// ModeMarkdown converts the page to Markdown, keeping headings, lists and tables.
	ModeMarkdown Mode = "markdown"
	// ModeReadability keeps only the main article content, as text.
	ModeReadability Mode = "readability"
)

// NonContentTags are removed before text is collected.
const NonContentTags = "script, style, noscript, meta, link"

const defaultBaseURL = "http://localhost/"

// ParseMode resolves a mode name. The empty string is ModeText.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeText, nil
	case ModeText, ModeMarkdown, ModeReadability:
		return m, nil
	}
	return "", fmt.Errorf("unknown cleaner mode %q", s)
}

// Cleaner turns markup into text.
type Cleaner struct {
	mode    Mode
	baseURL *url.URL
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithMode selects the strategy. ModeText is the default.
func WithMode(m Mode) Option {
	return func(c *Cleaner) {
		if m != "" {
			c.mode = m
		}
	}
}

// WithBaseURL sets the page address used to resolve relative links in
// readability mode.
func WithBaseURL(u string) Option {
	return func(c *Cleaner) {
		if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
			c.baseURL = parsed
		}
	}
}

// New creates a Cleaner.
func New(opts ...Option) *Cleaner {
	base, _ := url.Parse(defaultBaseURL)
	c := &Cleaner{mode: ModeText, baseURL: base}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean cleans html with the given mode.
func Clean(html string, mode Mode) (string, error) {
	return New(WithMode(mode)).Clean(html)
}

// Clean returns the cleaned text of html, or ErrEmptyContent when nothing
// is left.
func (c *Cleaner) Clean(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", fmt.Errorf("%w: markup is empty", ErrEmptyContent)
	}

	var (
		text string
		err  error
	)
	switch c.mode {
	case ModeText:
		text, err = visibleText(html)
	case ModeMarkdown:
		text, err = htmltomarkdown.ConvertString(html)
		if err != nil {
			err = fmt.Errorf("convert to markdown: %w", err)
		}
	case ModeReadability:
		text, err = c.mainContent(html)
	default:
		return "", fmt.Errorf("unknown cleaner mode %q", c.mode)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// mainContent runs readability and takes the text of the article it
// finds. Pages readability cannot handle fall back to the whole page.
func (c *Cleaner) mainContent(html string) (string, error) {
	article, err := readability.NewParser().Parse(strings.NewReader(html), c.baseURL)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		text, err := visibleText(article.Content)
		if err == nil && text != "" {
			if title := strings.TrimSpace(article.Title); title != "" && !strings.HasPrefix(text, title) {
				text = title + "\n" + text
			}
			return text, nil
		}
	}
	return visibleText(html)
}

// visibleText removes non-content tags, joins every non-blank text node
// with a space, then trims each line and drops blank ones.
func visibleText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}
	doc.Find(NonContentTags).Remove()

	var parts []string
	collectText(doc.Selection, &parts)
	return CleanLines(strings.Join(parts, " ")), nil
}

func collectText(s *goquery.Selection, parts *[]string) {
	s.Contents().Each(func(_ int, node *goquery.Selection) {
		switch goquery.NodeName(node) {
		case "#text":
			if t := strings.TrimSpace(node.Text()); t != "" {
				*parts = append(*parts, t)
			}
		case "#comment":
		default:
			collectText(node, parts)
		}
	})
}

// CleanLines trims every line of s and drops the blank ones.
func CleanLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
