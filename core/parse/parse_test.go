package parse

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/leofalp/tabscrape/providers/observability"
	"github.com/leofalp/tabscrape/providers/observability/memobs"
	"github.com/tidwall/gjson"
)

func TestParseOrRepair_ValidInputIsStrict(t *testing.T) {
	inputs := []string{
		`{"data":[{"a":1}]}`,
		`[1, 2, 3]`,
		"{\n\t\"a\": \"b\"\n}",
		`"just a string"`,
		`42`,
	}
	for _, in := range inputs {
		out := ParseOrRepair(in, WithPolicy(LenientPolicy))
		if out.Stage != StageStrict {
			t.Errorf("ParseOrRepair(%q) stage = %v, want strict", in, out.Stage)
		}
		if len(out.Fixups) != 0 || out.Err != nil {
			t.Errorf("ParseOrRepair(%q) ran repair: fixups=%v err=%v", in, out.Fixups, out.Err)
		}
	}
}

func TestParseOrRepair_StripControlMatchesCleanedDecode(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
	}{
		{name: "raw newline inside string", candidate: "{\"name\": \"Ada\nLovelace\"}"},
		{name: "raw tab inside string", candidate: "{\"a\": \"x\ty\", \"b\": [1,\n2]}"},
		{name: "carriage return and bell", candidate: "[{\"k\": \"v\r\a\"}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned, _ := StripControl.Apply(tt.candidate)
			want, err := Decode(cleaned)
			if err != nil {
				t.Fatalf("cleaned text should decode: %v", err)
			}

			out := ParseOrRepair(tt.candidate, WithPolicy(ConservativePolicy))
			if out.Stage != StageRepaired {
				t.Fatalf("stage = %v, want repaired", out.Stage)
			}
			if out.Value.String() != want.String() {
				t.Errorf("value = %s, want %s", out.Value, want)
			}
			if !slices.Equal(out.Fixups, []string{"strip_control"}) {
				t.Errorf("fixups = %v", out.Fixups)
			}
		})
	}
}

func TestParseOrRepair_UnrecoverableYieldsEmptyObject(t *testing.T) {
	rec := memobs.New()
	out := ParseOrRepair("not json at all", WithObserver(rec))

	if out.Stage != StageFailed {
		t.Fatalf("stage = %v, want failed", out.Stage)
	}
	if out.Value.String() != "{}" || !out.Value.IsObject() {
		t.Errorf("value = %s, want {}", out.Value)
	}
	if !errors.Is(out.Err, ErrUnparseable) {
		t.Errorf("expected ErrUnparseable, got %v", out.Err)
	}

	errs := rec.EntriesAt(memobs.LevelError)
	if len(errs) != 1 {
		t.Fatalf("expected one error diagnostic, got %v", rec.Entries())
	}
	if v, _ := errs[0].Attr(observability.AttrResponseContent); v != "not json at all" {
		t.Errorf("expected candidate in diagnostic, got %v", v)
	}
	if rec.CounterValue(observability.MetricParseFailureCount) != 1 {
		t.Error("expected failure counter to be incremented")
	}
}

func TestParseOrRepair_Policies(t *testing.T) {
	tests := []struct {
		name       string
		candidate  string
		policy     Policy
		wantStage  Stage
		wantFixups []string
		want       string
	}{
		{
			name:       "trailing comma with default policy",
			candidate:  `{"data": [{"a": 1,}, {"a": 2},]}`,
			policy:     DefaultPolicy,
			wantStage:  StageRepaired,
			wantFixups: []string{"trim_trailing_commas"},
			want:       `{"data":[{"a":1},{"a":2}]}`,
		},
		{
			name:      "trailing comma with conservative policy fails",
			candidate: `{"a": 1,}`,
			policy:    ConservativePolicy,
			wantStage: StageFailed,
			want:      `{}`,
		},
		{
			name:       "control characters and trailing comma are cumulative",
			candidate:  "{\"a\": \"x\ny\",\n}",
			policy:     DefaultPolicy,
			wantStage:  StageRepaired,
			wantFixups: []string{"strip_control", "trim_trailing_commas"},
			want:       `{"a":"xy"}`,
		},
		{
			name:       "comma inside string is kept",
			candidate:  `{"a": "x,}", "b": 2,}`,
			policy:     DefaultPolicy,
			wantStage:  StageRepaired,
			wantFixups: []string{"trim_trailing_commas"},
			want:       `{"a":"x,}","b":2}`,
		},
		{
			name:       "single quotes need lenient policy",
			candidate:  `{'data': [{'a': 1}]}`,
			policy:     LenientPolicy,
			wantStage:  StageRepaired,
			wantFixups: []string{"syntax_repair"},
			want:       `{"data":[{"a":1}]}`,
		},
		{
			name:      "single quotes with default policy fail",
			candidate: `{'data': []}`,
			policy:    DefaultPolicy,
			wantStage: StageFailed,
			want:      `{}`,
		},
		{
			name:      "lenient policy leaves prose alone",
			candidate: `the answer is 42`,
			policy:    LenientPolicy,
			wantStage: StageFailed,
			want:      `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ParseOrRepair(tt.candidate, WithPolicy(tt.policy))
			if out.Stage != tt.wantStage {
				t.Fatalf("stage = %v, want %v (err %v)", out.Stage, tt.wantStage, out.Err)
			}
			if got := out.Value.String(); got != tt.want {
				t.Errorf("value = %s, want %s", got, tt.want)
			}
			if tt.wantStage == StageRepaired && !slices.Equal(out.Fixups, tt.wantFixups) {
				t.Errorf("fixups = %v, want %v", out.Fixups, tt.wantFixups)
			}
		})
	}
}

func TestParseOrRepair_RepairIsCounted(t *testing.T) {
	rec := memobs.New()
	out := ParseOrRepair("[1,2,]", WithObserver(rec))
	if out.Stage != StageRepaired {
		t.Fatalf("stage = %v, want repaired", out.Stage)
	}
	if rec.CounterValue(observability.MetricParseRepairCount) != 1 {
		t.Error("expected repair counter to be incremented")
	}
	spans := rec.Spans()
	if len(spans) != 1 || spans[0].Name != observability.SpanParseResponse || !spans[0].Ended {
		t.Errorf("unexpected spans: %+v", spans)
	}
}

func TestParseResponse_FencedEndToEnd(t *testing.T) {
	c, out := ParseResponse(context.Background(), "prose ```json\n{\"data\":[{\"a\":1}]}\n``` trailing")
	if c.Source != SourceFenced {
		t.Errorf("source = %v, want fenced", c.Source)
	}
	if out.Stage != StageStrict || out.Value.String() != `{"data":[{"a":1}]}` {
		t.Errorf("unexpected outcome %v %s", out.Stage, out.Value)
	}
}

func TestPolicyByName(t *testing.T) {
	for _, name := range []string{"conservative", "default", "lenient", "LENIENT", ""} {
		p, ok := PolicyByName(name)
		if !ok {
			t.Errorf("PolicyByName(%q) not found", name)
			continue
		}
		if name != "" && !strings.EqualFold(p.Name, name) {
			t.Errorf("PolicyByName(%q) = %s", name, p.Name)
		}
	}
	if _, ok := PolicyByName("aggressive"); ok {
		t.Error("expected unknown policy to be rejected")
	}
}

func TestDecode_KeepsKeyOrder(t *testing.T) {
	v, err := Decode(`{"z": 1, "a": 2, "m": 3}`)
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	v.Result().ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	if !slices.Equal(keys, []string{"z", "a", "m"}) {
		t.Errorf("keys = %v", keys)
	}
}

func TestStage_String(t *testing.T) {
	if StageStrict.String() != "strict" || StageRepaired.String() != "repaired" || StageFailed.String() != "failed" {
		t.Error("unexpected stage names")
	}
}
