package cleaner

import (
	"errors"
	"strings"
	"testing"
)

const page = `<!DOCTYPE html>
<html>
<head>
	<title>Listings</title>
	<meta charset="utf-8">
	<link rel="stylesheet" href="x.css">
	<style>body { color: red; }</style>
	<script>var tracking = "secret";</script>
</head>
<body>
	<!-- navigation -->
	<h1>Houses   for sale</h1>
	<noscript>Enable JavaScript</noscript>
	<ul>
		<li>1 High St, <b>£250,000</b></li>
		<li>2 Low Rd, <b>£310,000</b></li>
	</ul>
</body>
</html>`

func TestClean_TextMode(t *testing.T) {
	got, err := Clean(page, ModeText)
	if err != nil {
		t.Fatal(err)
	}

	want := "Listings Houses   for sale 1 High St, £250,000 2 Low Rd, £310,000"
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
	for _, banned := range []string{"secret", "color: red", "Enable JavaScript", "navigation"} {
		if strings.Contains(got, banned) {
			t.Errorf("expected %q to be removed", banned)
		}
	}
}

func TestClean_TextModeKeepsInnerLineBreaks(t *testing.T) {
	got, err := Clean("<html><body><pre>  line one  \n\n   line two </pre></body></html>", ModeText)
	if err != nil {
		t.Fatal(err)
	}
	if got != "line one\nline two" {
		t.Errorf("Clean() = %q", got)
	}
}

func TestClean_MarkdownMode(t *testing.T) {
	got, err := Clean(page, ModeMarkdown)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "# Houses") || !strings.Contains(got, "**£250,000**") {
		t.Errorf("expected markdown structure, got %q", got)
	}
	if strings.Contains(got, "secret") {
		t.Error("expected script content to be dropped")
	}
}

func TestClean_ReadabilityMode(t *testing.T) {
	article := `<html><head><title>Market report</title></head><body>
		<nav><a href="/">Home</a> <a href="/about">About</a></nav>
		<article>
			<h1>Market report</h1>
			<p>House prices rose across the region this quarter, with the average detached home selling for £310,000 and terraced homes for £250,000.</p>
			<p>Agents reported strong demand from first-time buyers, while rental listings fell for the third consecutive month in most postcodes.</p>
			<p>Analysts expect the trend to continue into next year as mortgage rates stabilise and supply remains limited in the area.</p>
		</article>
		<footer>Copyright</footer>
	</body></html>`

	got, err := New(WithMode(ModeReadability), WithBaseURL("https://example.com/report")).Clean(article)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "£310,000") {
		t.Errorf("expected article text, got %q", got)
	}
}

func TestClean_EmptyContent(t *testing.T) {
	tests := []struct {
		name string
		html string
		mode Mode
	}{
		{name: "empty markup", html: "", mode: ModeText},
		{name: "whitespace markup", html: "  \n ", mode: ModeMarkdown},
		{name: "only scripts", html: "<html><head><script>x()</script></head><body><style>p{}</style></body></html>", mode: ModeText},
		{name: "empty body", html: "<html><body>   </body></html>", mode: ModeReadability},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Clean(tt.html, tt.mode)
			if !errors.Is(err, ErrEmptyContent) {
				t.Errorf("expected ErrEmptyContent, got %v", err)
			}
		})
	}
}

func TestClean_UnknownMode(t *testing.T) {
	if _, err := Clean(page, Mode("pdf")); err == nil || errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected unknown mode error, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeText, "TEXT": ModeText, "markdown": ModeMarkdown, " readability ": ModeReadability} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("pdf"); err == nil {
		t.Error("expected unknown mode to be rejected")
	}
}

func TestCleanLines(t *testing.T) {
	got := CleanLines("  a  \n\n\t\n b\n")
	if got != "a\nb" {
		t.Errorf("CleanLines() = %q", got)
	}
}
