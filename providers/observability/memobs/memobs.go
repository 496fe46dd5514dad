// Package memobs is an observability.Provider that keeps everything in
// memory. It backs assertions in tests and the CLI's run summary.
package memobs

import (
	"context"
	"sync"

	"github.com/leofalp/tabscrape/providers/observability"
)

// Level names a log severity recorded by the Recorder.
type Level string

const (
	LevelTrace Level = "TRACE"
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one recorded log line.
type Entry struct {
	Level   Level
	Message string
	Attrs   []observability.Attribute
}

// Attr returns the value of the first attribute named key.
func (e Entry) Attr(key string) (any, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

// SpanRecord captures a span as it looked when it ended.
type SpanRecord struct {
	Name   string
	Attrs  []observability.Attribute
	Status observability.StatusCode
	Errors []error
	Events []string
	Ended  bool
}

// Recorder stores logs, spans and metric values.
type Recorder struct {
	mu         sync.Mutex
	entries    []Entry
	spans      []*SpanRecord
	counters   map[string]int64
	histograms map[string][]float64
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{
		counters:   make(map[string]int64),
		histograms: make(map[string][]float64),
	}
}

var _ observability.Provider = (*Recorder)(nil)

// Entries returns a copy of the recorded log entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// EntriesAt returns recorded entries of the given level.
func (r *Recorder) EntriesAt(level Level) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Spans returns copies of the recorded spans in start order.
func (r *Recorder) Spans() []SpanRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SpanRecord, 0, len(r.spans))
	for _, s := range r.spans {
		out = append(out, *s)
	}
	return out
}

// CounterValue returns the cumulative value of a counter.
func (r *Recorder) CounterValue(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

// HistogramValues returns the observations recorded for a histogram.
func (r *Recorder) HistogramValues(name string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.histograms[name]...)
}

func (r *Recorder) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	rec := &SpanRecord{Name: name, Attrs: append([]observability.Attribute(nil), attrs...)}
	r.mu.Lock()
	r.spans = append(r.spans, rec)
	r.mu.Unlock()
	s := &span{owner: r, rec: rec}
	return observability.ContextWithSpan(ctx, s), s
}

func (r *Recorder) Counter(name string) observability.Counter {
	return instrument{owner: r, name: name}
}

func (r *Recorder) Histogram(name string) observability.Histogram {
	return instrument{owner: r, name: name}
}

func (r *Recorder) Trace(_ context.Context, msg string, attrs ...observability.Attribute) {
	r.log(LevelTrace, msg, attrs)
}

func (r *Recorder) Debug(_ context.Context, msg string, attrs ...observability.Attribute) {
	r.log(LevelDebug, msg, attrs)
}

func (r *Recorder) Info(_ context.Context, msg string, attrs ...observability.Attribute) {
	r.log(LevelInfo, msg, attrs)
}

func (r *Recorder) Warn(_ context.Context, msg string, attrs ...observability.Attribute) {
	r.log(LevelWarn, msg, attrs)
}

func (r *Recorder) Error(_ context.Context, msg string, attrs ...observability.Attribute) {
	r.log(LevelError, msg, attrs)
}

func (r *Recorder) log(level Level, msg string, attrs []observability.Attribute) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg, Attrs: append([]observability.Attribute(nil), attrs...)})
}

type span struct {
	owner *Recorder
	rec   *SpanRecord
}

func (s *span) End() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.rec.Ended = true
}

func (s *span) SetAttributes(attrs ...observability.Attribute) {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.rec.Attrs = append(s.rec.Attrs, attrs...)
}

func (s *span) SetStatus(code observability.StatusCode, _ string) {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.rec.Status = code
}

func (s *span) RecordError(err error) {
	if err == nil {
		return
	}
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.rec.Errors = append(s.rec.Errors, err)
}

func (s *span) AddEvent(name string, _ ...observability.Attribute) {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.rec.Events = append(s.rec.Events, name)
}

type instrument struct {
	owner *Recorder
	name  string
}

func (i instrument) Add(_ context.Context, value int64, _ ...observability.Attribute) {
	i.owner.mu.Lock()
	defer i.owner.mu.Unlock()
	i.owner.counters[i.name] += value
}

func (i instrument) Record(_ context.Context, value float64, _ ...observability.Attribute) {
	i.owner.mu.Lock()
	defer i.owner.mu.Unlock()
	i.owner.histograms[i.name] = append(i.owner.histograms[i.name], value)
}
