package chunk

import (
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func wordLength(chunk string) int {
	n := 0
	for _, w := range strings.Fields(chunk) {
		n += utf8.RuneCountInString(w)
	}
	return n
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLength int
		want      []string
	}{
		{"empty", "", 10, nil},
		{"whitespace only", " \n\t ", 10, nil},
		{"single chunk", "a bb ccc", 10, []string{"a bb ccc"}},
		{"breach starts new chunk", "aaaa bbbb cccc", 9, []string{"aaaa bbbb", "cccc"}},
		{"sum equal to max breaches", "aaaaa bbbbb", 10, []string{"aaaaa", "bbbbb"}},
		{"oversized word alone", "tiny enormousword tiny", 5, []string{"tiny", "enormousword", "tiny"}},
		{"leading oversized word", "enormousword a b", 5, []string{"enormousword", "a b"}},
		{"newlines collapse", "line one\nline two", 100, []string{"line one line two"}},
		{"runes counted not bytes", "£££ €€€", 7, []string{"£££ €€€"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.maxLength)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q, %d) = %q, want %q", tt.text, tt.maxLength, got, tt.want)
			}
		})
	}
}

func TestSplit_DefaultMaxLength(t *testing.T) {
	text := strings.Repeat("abcde ", 6000)
	chunks := Split(text, 0)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks with the default limit, got %d", len(chunks))
	}
	if wordLength(chunks[0]) >= DefaultMaxLength {
		t.Errorf("first chunk word length %d not below %d", wordLength(chunks[0]), DefaultMaxLength)
	}
}

func randomText(r *rand.Rand) string {
	var b strings.Builder
	n := r.IntN(200)
	for i := 0; i < n; i++ {
		size := 1 + r.IntN(30)
		for j := 0; j < size; j++ {
			b.WriteByte(byte('a' + r.IntN(26)))
		}
		switch r.IntN(4) {
		case 0:
			b.WriteString("\n")
		case 1:
			b.WriteString("  ")
		default:
			b.WriteString(" ")
		}
	}
	return b.String()
}

func TestSplit_LengthInvariant(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		text := randomText(r)
		maxLength := 1 + r.IntN(60)
		for _, c := range Split(text, maxLength) {
			if c == "" {
				t.Fatalf("empty chunk for %q", text)
			}
			words := strings.Fields(c)
			if len(words) > 1 && wordLength(c) >= maxLength {
				t.Fatalf("chunk %q has word length %d >= %d", c, wordLength(c), maxLength)
			}
		}
	}
}

func TestSplit_Reconstruction(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 200; i++ {
		text := randomText(r)
		chunks := Split(text, 1+r.IntN(60))

		var got []string
		for _, c := range chunks {
			got = append(got, strings.Fields(c)...)
		}
		want := strings.Fields(text)
		if len(want) == 0 {
			want = nil
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("words not reconstructed for %q", text)
		}
	}
}

func TestChunker(t *testing.T) {
	c := New(WithMaxLength(9), WithMaxLength(-1))
	if c.MaxLength() != 9 {
		t.Errorf("MaxLength() = %d, want 9", c.MaxLength())
	}
	if got := c.Body("aaaa   bbbb\ncccc"); got != "aaaa bbbb\ncccc" {
		t.Errorf("Body() = %q", got)
	}
	if got := New().MaxLength(); got != DefaultMaxLength {
		t.Errorf("default MaxLength() = %d", got)
	}
	if got := c.Body(""); got != "" {
		t.Errorf("Body(\"\") = %q", got)
	}
}

func TestJoin(t *testing.T) {
	if got := Join([]string{"a b", "c"}); got != "a b\nc" {
		t.Errorf("Join() = %q", got)
	}
	if got := Join(nil); got != "" {
		t.Errorf("Join(nil) = %q", got)
	}
}
