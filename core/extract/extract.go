// Package extract builds the extraction prompt and sends it to the
// text-generation service.
package extract

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/leofalp/tabscrape/core/client"
)

//go:embed templates/extract.tmpl
var templateFS embed.FS

// PromptTemplate is the default extraction instruction. It embeds the raw
// text and asks for a JSON object with a single "data" array.
var PromptTemplate = template.Must(
	template.New("extract").ParseFS(templateFS, "templates/extract.tmpl"),
).Lookup("extract.tmpl")

type promptData struct {
	RawText string
}

// Requester turns raw text into one service call.
type Requester struct {
	client   *client.Client
	template *template.Template
}

// Option configures a Requester.
type Option func(*Requester)

// WithTemplate replaces the default prompt. The template receives a value
// with a RawText field.
func WithTemplate(tpl *template.Template) Option {
	return func(r *Requester) {
		if tpl != nil {
			r.template = tpl
		}
	}
}

// New creates a Requester that sends through c.
func New(c *client.Client, opts ...Option) (*Requester, error) {
	if c == nil {
		return nil, errors.New("extract: client is required")
	}
	r := &Requester{client: c, template: PromptTemplate}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render returns the prompt for text without sending it.
func (r *Requester) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.template.Execute(&buf, promptData{RawText: text}); err != nil {
		return "", fmt.Errorf("render extraction prompt: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Request renders the prompt for text and performs exactly one service call,
// returning the raw completion.
func (r *Requester) Request(ctx context.Context, text string) (string, error) {
	prompt, err := r.Render(text)
	if err != nil {
		return "", err
	}

	resp, err := r.client.SendMessage(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("extraction request failed: %w", err)
	}
	return resp.Content, nil
}
