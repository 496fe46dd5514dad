package parse

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/tabscrape/internal/utils"
	"github.com/leofalp/tabscrape/providers/observability"
)

// ErrUnparseable is carried by an Outcome whose candidate could not be
// decoded even after repair.
var ErrUnparseable = errors.New("response is not parseable JSON")

// Stage is the terminal state of a two-stage parse.
type Stage int

const (
	// StageStrict means the candidate decoded as-is.
	StageStrict Stage = iota
	// StageRepaired means the candidate decoded after one or more fixups.
	StageRepaired
	// StageFailed means every attempt failed and the value is the empty object.
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageStrict:
		return "strict"
	case StageRepaired:
		return "repaired"
	default:
		return "failed"
	}
}

// Outcome is the result of ParseOrRepair. Value is always usable; Err is set
// only when Stage is StageFailed.
type Outcome struct {
	Value  Value
	Stage  Stage
	Fixups []string
	Err    error
}

// Option configures ParseOrRepair.
type Option func(*config)

type config struct {
	policy   Policy
	observer observability.Provider
}

// WithPolicy selects the repair policy. DefaultPolicy is used otherwise.
func WithPolicy(p Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithObserver reports repairs and failures to the given provider.
func WithObserver(p observability.Provider) Option {
	return func(c *config) {
		c.observer = p
	}
}

// ParseOrRepair decodes candidate strictly and, on failure, applies the
// policy's fixups one by one until a strict decode succeeds. Valid input
// never reaches the repair stage. When nothing works the outcome holds the
// empty object and StageFailed; the failure is logged, not returned.
func ParseOrRepair(candidate string, opts ...Option) Outcome {
	return ParseOrRepairContext(context.Background(), candidate, opts...)
}

// ParseOrRepairContext is ParseOrRepair with a context for span propagation.
func ParseOrRepairContext(ctx context.Context, candidate string, opts ...Option) Outcome {
	cfg := config{policy: DefaultPolicy}
	for _, opt := range opts {
		opt(&cfg)
	}
	obs := observability.OrNop(cfg.observer)

	ctx, span := obs.StartSpan(ctx, observability.SpanParseResponse)
	defer span.End()

	v, err := Decode(candidate)
	if err == nil {
		span.SetAttributes(observability.String(observability.AttrParseStage, StageStrict.String()))
		span.SetStatus(observability.StatusOK, "")
		return Outcome{Value: v, Stage: StageStrict}
	}
	lastErr := err

	text := candidate
	var applied []string
	for _, fx := range cfg.policy.Fixups {
		next, fxErr := fx.Apply(text)
		if fxErr != nil {
			span.AddEvent("parse.fixup.skipped", observability.String("fixup", fx.Name))
			continue
		}
		if next == text {
			continue
		}
		text = next
		applied = append(applied, fx.Name)

		v, err = Decode(text)
		if err == nil {
			span.SetAttributes(
				observability.String(observability.AttrParseStage, StageRepaired.String()),
				observability.Strings(observability.AttrParseFixups, applied),
			)
			span.SetStatus(observability.StatusOK, "")
			obs.Counter(observability.MetricParseRepairCount).Add(ctx, 1)
			obs.Debug(ctx, "response repaired",
				observability.Strings(observability.AttrParseFixups, applied),
			)
			return Outcome{Value: v, Stage: StageRepaired, Fixups: applied}
		}
		lastErr = err
	}

	failure := fmt.Errorf("%w: %w", ErrUnparseable, lastErr)
	span.RecordError(failure)
	span.SetAttributes(observability.String(observability.AttrParseStage, StageFailed.String()))
	span.SetStatus(observability.StatusError, "unparseable response")
	obs.Counter(observability.MetricParseFailureCount).Add(ctx, 1)
	obs.Error(ctx, "failed to parse response as JSON, using empty object",
		observability.Error(failure),
		observability.String(observability.AttrResponseContent, utils.TruncateString(candidate, utils.DefaultMaxStringLength)),
		observability.String("policy", cfg.policy.Name),
		observability.Strings(observability.AttrParseFixups, applied),
	)

	return Outcome{Value: EmptyObject(), Stage: StageFailed, Fixups: applied, Err: failure}
}

// ParseResponse runs Extract followed by ParseOrRepairContext.
func ParseResponse(ctx context.Context, raw string, opts ...Option) (Candidate, Outcome) {
	c := Extract(raw)
	return c, ParseOrRepairContext(ctx, c.Text, opts...)
}
