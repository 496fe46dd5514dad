package parse

import (
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
)

// Fixup is one repair step applied to a candidate that failed strict decoding.
// Apply returns the rewritten text, or an error when the fixup does not apply.
type Fixup struct {
	Name  string
	Apply func(candidate string) (string, error)
}

// Policy is an ordered list of fixups. Fixups are cumulative: each one runs
// on the output of the previous ones, and every change is followed by a
// strict decode attempt.
type Policy struct {
	Name   string
	Fixups []Fixup
}

var errNotContainer = errors.New("candidate is not an object or array")

// StripControl removes newlines, tabs and every other C0 control character,
// then trims surrounding whitespace.
var StripControl = Fixup{
	Name: "strip_control",
	Apply: func(s string) (string, error) {
		stripped := strings.Map(func(r rune) rune {
			if r < 0x20 || r == 0x7f {
				return -1
			}
			return r
		}, s)
		return strings.TrimSpace(stripped), nil
	},
}

// TrimTrailingCommas drops commas that directly precede a closing brace or
// bracket. Commas inside string literals are left alone.
var TrimTrailingCommas = Fixup{
	Name:  "trim_trailing_commas",
	Apply: func(s string) (string, error) { return trimTrailingCommas(s), nil },
}

// SyntaxRepair hands the candidate to jsonrepair. It only runs on candidates
// that start with '{' or '[', and its result is kept only when it is an
// object or array.
var SyntaxRepair = Fixup{
	Name: "syntax_repair",
	Apply: func(s string) (string, error) {
		if !startsLikeContainer(s) {
			return s, errNotContainer
		}
		repaired, err := jsonrepair.JSONRepair(s)
		if err != nil {
			return s, err
		}
		if r := gjson.Parse(repaired); !r.IsObject() && !r.IsArray() {
			return s, errNotContainer
		}
		return repaired, nil
	},
}

var (
	// ConservativePolicy only removes control characters and trims.
	ConservativePolicy = Policy{Name: "conservative", Fixups: []Fixup{StripControl}}

	// DefaultPolicy also removes trailing commas.
	DefaultPolicy = Policy{Name: "default", Fixups: []Fixup{StripControl, TrimTrailingCommas}}

	// LenientPolicy also runs a general syntax repair.
	LenientPolicy = Policy{Name: "lenient", Fixups: []Fixup{StripControl, TrimTrailingCommas, SyntaxRepair}}
)

// PolicyByName resolves "conservative", "default" or "lenient".
func PolicyByName(name string) (Policy, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ConservativePolicy.Name:
		return ConservativePolicy, true
	case DefaultPolicy.Name, "":
		return DefaultPolicy, true
	case LenientPolicy.Name:
		return LenientPolicy, true
	}
	return Policy{}, false
}

func trimTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && isJSONSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
