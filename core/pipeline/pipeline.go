// Package pipeline wires the chunker, the extraction requester, the JSON
// extractor and repair, and the schema normalizer into a single run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leofalp/tabscrape/core/chunk"
	"github.com/leofalp/tabscrape/core/parse"
	"github.com/leofalp/tabscrape/core/table"
	"github.com/leofalp/tabscrape/internal/utils"
	"github.com/leofalp/tabscrape/providers/observability"
)

// ErrEmptyText is returned by Run when there is no text to extract from.
var ErrEmptyText = errors.New("pipeline: text is empty")

// Mode selects how chunks are sent to the service.
type Mode string

const (
	// ModeJoined rejoins every chunk into one body and makes a single call.
	ModeJoined Mode = "joined"
	// ModePerChunk makes one call per chunk and merges the records.
	ModePerChunk Mode = "per_chunk"
)

// ParseMode resolves a mode name. The empty string is ModeJoined.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeJoined, "":
		return ModeJoined, nil
	case ModePerChunk, "per-chunk":
		return ModePerChunk, nil
	}
	return "", fmt.Errorf("unknown chunk mode %q", s)
}

// Requester sends one body of text to the text-generation service and
// returns its raw completion. *extract.Requester implements it.
type Requester interface {
	Request(ctx context.Context, text string) (string, error)
}

// Result is everything a run produced. Responses, Candidates and Outcomes
// hold one entry per service call.
type Result struct {
	Table      table.Table
	Chunks     int
	Responses  []string
	Candidates []parse.Candidate
	Outcomes   []parse.Outcome
}

// Degraded reports whether every response failed to parse.
func (r Result) Degraded() bool {
	if len(r.Outcomes) == 0 {
		return false
	}
	for _, o := range r.Outcomes {
		if o.Stage != parse.StageFailed {
			return false
		}
	}
	return true
}

// Pipeline runs text through extraction and normalization.
type Pipeline struct {
	requester Requester
	chunker   *chunk.Chunker
	mode      Mode
	policy    parse.Policy
	tableOpts []table.Option
	observer  observability.Provider
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithChunker replaces the default chunker.
func WithChunker(c *chunk.Chunker) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.chunker = c
		}
	}
}

// WithMode selects joined or per-chunk dispatch.
func WithMode(m Mode) Option {
	return func(p *Pipeline) {
		p.mode = m
	}
}

// WithPolicy selects the JSON repair policy.
func WithPolicy(policy parse.Policy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithTableOptions passes options to the normalizer.
func WithTableOptions(opts ...table.Option) Option {
	return func(p *Pipeline) {
		p.tableOpts = append(p.tableOpts, opts...)
	}
}

// WithObserver reports every stage to o.
func WithObserver(o observability.Provider) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// New creates a Pipeline. requester may be nil when only ParseResponse is used.
func New(requester Requester, opts ...Option) *Pipeline {
	p := &Pipeline{
		requester: requester,
		chunker:   chunk.New(),
		mode:      ModeJoined,
		policy:    parse.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.observer = observability.OrNop(p.observer)
	return p
}

// Mode returns the dispatch mode.
func (p *Pipeline) Mode() Mode {
	return p.mode
}

// Run chunks text, requests an extraction, and normalizes the responses
// into a table. Content problems degrade to an empty table; only empty
// input, a missing requester, or a failed service call return an error.
func (p *Pipeline) Run(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}
	if p.requester == nil {
		return Result{}, errors.New("pipeline: no requester configured")
	}

	obs := p.observer
	ctx = observability.ContextWithObserver(ctx, obs)
	ctx, span := obs.StartSpan(ctx, observability.SpanPipelineRun,
		observability.Int(observability.AttrTextLength, len([]rune(text))),
		observability.String(observability.AttrChunkMode, string(p.mode)),
	)
	defer span.End()

	chunks := p.chunker.Split(text)
	bodies := chunks
	if p.mode != ModePerChunk {
		bodies = []string{chunk.Join(chunks)}
	}
	span.SetAttributes(observability.Int(observability.AttrChunkCount, len(chunks)))
	obs.Debug(ctx, "text chunked",
		observability.Int(observability.AttrChunkCount, len(chunks)),
		observability.String(observability.AttrChunkMode, string(p.mode)),
	)

	result := Result{Chunks: len(chunks)}
	for i, body := range bodies {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "cancelled")
			return result, err
		}

		raw, err := p.requester.Request(ctx, body)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "extraction request failed")
			obs.Error(ctx, "extraction request failed",
				observability.Error(err),
				observability.Int(observability.AttrChunkIndex, i),
			)
			return result, fmt.Errorf("pipeline: request %d of %d: %w", i+1, len(bodies), err)
		}
		obs.Trace(ctx, "raw response received",
			observability.Int(observability.AttrChunkIndex, i),
			observability.String(observability.AttrResponseContent, utils.TruncateString(raw, utils.DefaultMaxStringLength)),
		)
		p.collect(ctx, &result, raw)
	}

	p.normalize(ctx, &result)
	span.SetAttributes(
		observability.Int(observability.AttrTableRows, result.Table.Len()),
		observability.Int(observability.AttrTableColumns, len(result.Table.Columns)),
	)
	span.SetStatus(observability.StatusOK, "")
	obs.Info(ctx, "pipeline completed",
		observability.Int(observability.AttrChunkCount, len(chunks)),
		observability.Int(observability.AttrTableRows, result.Table.Len()),
		observability.Int(observability.AttrTableColumns, len(result.Table.Columns)),
	)
	return result, nil
}

// ParseResponse turns a raw completion into a table without calling the
// service. It is used for saved responses.
func (p *Pipeline) ParseResponse(ctx context.Context, raw string) Result {
	ctx = observability.ContextWithObserver(ctx, p.observer)
	var result Result
	p.collect(ctx, &result, raw)
	p.normalize(ctx, &result)
	return result
}

func (p *Pipeline) collect(ctx context.Context, result *Result, raw string) {
	candidate, outcome := parse.ParseResponse(ctx, raw,
		parse.WithPolicy(p.policy),
		parse.WithObserver(p.observer),
	)
	p.observer.Debug(ctx, "json candidate extracted",
		observability.String(observability.AttrCandidateSource, candidate.Source.String()),
		observability.String(observability.AttrParseStage, outcome.Stage.String()),
	)
	if outcome.Stage != parse.StageFailed {
		if err := parse.CheckEnvelope(outcome.Value); err != nil {
			p.observer.Warn(ctx, "response does not use the data envelope", observability.Error(err))
		}
	}

	result.Responses = append(result.Responses, raw)
	result.Candidates = append(result.Candidates, candidate)
	result.Outcomes = append(result.Outcomes, outcome)
}

func (p *Pipeline) normalize(ctx context.Context, result *Result) {
	values := make([]parse.Value, len(result.Outcomes))
	for i, o := range result.Outcomes {
		values[i] = o.Value
	}
	opts := append([]table.Option{table.WithObserver(p.observer)}, p.tableOpts...)
	result.Table = table.NormalizeAll(ctx, values, opts...)
}
