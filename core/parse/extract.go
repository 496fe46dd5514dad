package parse

import (
	"strings"

	"github.com/leofalp/tabscrape/providers/ai"
)

const fenceMarker = "```"

// CandidateSource tells where in the response a candidate was found.
type CandidateSource int

const (
	// SourceWhole means no usable fence was present; the whole response is the candidate.
	SourceWhole CandidateSource = iota
	// SourceFenced means the candidate is the body of a fence tagged json.
	SourceFenced
	// SourceBareFence means the candidate is an untagged fence holding an object or array.
	SourceBareFence
)

func (s CandidateSource) String() string {
	switch s {
	case SourceFenced:
		return "fenced"
	case SourceBareFence:
		return "bare_fence"
	default:
		return "whole"
	}
}

// Candidate is the text believed to contain JSON. It has not been parsed.
type Candidate struct {
	Text   string
	Source CandidateSource
}

type fence struct {
	lang   string
	body   string
	closed bool
}

// Extract isolates the JSON candidate in a raw response. Reasoning blocks
// (<think>...</think>) are discarded first. The first non-empty fence tagged
// json (case-insensitive) wins; an unterminated json fence yields everything
// after its marker. Without one, the first untagged fence whose body starts
// with '{' or '[' is used. Otherwise the whole trimmed response is returned.
//
// Markers are not paired in order: a stray or inline ``` before the real
// block does not hide it.
func Extract(raw string) Candidate {
	answer, _ := ai.SplitReasoning(raw)

	for _, f := range fencesAt(answer) {
		if strings.EqualFold(f.lang, "json") && f.body != "" {
			return Candidate{Text: f.body, Source: SourceFenced}
		}
	}
	for _, f := range fencesAt(answer) {
		if f.lang == "" && f.closed && startsLikeContainer(f.body) {
			return Candidate{Text: f.body, Source: SourceBareFence}
		}
	}

	return Candidate{Text: strings.TrimSpace(answer), Source: SourceWhole}
}

// fencesAt reads a fence starting at every marker in s, in order. Each one
// runs to the next marker, so a closing marker is also read as an opening
// one; callers pick the first fence that fits.
func fencesAt(s string) []fence {
	var fences []fence
	pos := 0
	for {
		i := strings.Index(s[pos:], fenceMarker)
		if i == -1 {
			return fences
		}
		start := pos + i + len(fenceMarker)

		langEnd := start
		for langEnd < len(s) && isLangByte(s[langEnd]) {
			langEnd++
		}
		f := fence{lang: s[start:langEnd]}

		if end := strings.Index(s[langEnd:], fenceMarker); end == -1 {
			f.body = strings.TrimSpace(s[langEnd:])
		} else {
			f.body = strings.TrimSpace(s[langEnd : langEnd+end])
			f.closed = true
		}
		fences = append(fences, f)
		pos = start
	}
}

func isLangByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_' || b == '-' || b == '+'
}

func startsLikeContainer(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}
