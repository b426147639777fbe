package splitter

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplitTokensAndText(t *testing.T) {
	spans := Split(`<p>Hello</p>[vc_row width="full"] world [/vc_row]`)
	want := []Span{
		{Text, "<p>Hello</p>"},
		{Token, `[vc_row width="full"]`},
		{Text, " world "},
		{Token, "[/vc_row]"},
	}
	if len(spans) != len(want) {
		t.Fatalf("expected %d spans, got %d: %+v", len(want), len(spans), spans)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Fatalf("span %d: expected %+v got %+v", i, want[i], spans[i])
		}
	}
}

func TestSplitNoNestingAndEmptyBrackets(t *testing.T) {
	spans := Split("[a [b] c] []")
	if len(spans) != 2 || spans[0].Kind != Token || spans[0].Value != "[a [b]" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
	if spans[1].Kind != Text || spans[1].Value != " c] []" {
		t.Fatalf("expected trailing text span, got %+v", spans[1])
	}
}

func TestSplitAdjacentTokensHaveNoEmptySpans(t *testing.T) {
	spans := Split("[a][b]")
	if len(spans) != 2 || spans[0].Kind != Token || spans[1].Kind != Token {
		t.Fatalf("unexpected spans: %+v", spans)
	}
	if len(Split("")) != 0 {
		t.Fatalf("empty content must produce no spans")
	}
}

func TestRoundTripIdentity(t *testing.T) {
	fillers := []string{"", " ", "\n\t", "Hello, world.", "<b>bold</b> ", "a]b", "]"}
	for n := 0; n <= 12; n++ {
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteString(fillers[i%len(fillers)])
			fmt.Fprintf(&b, "[tok%d x=\"%d\"]", i, i)
		}
		b.WriteString(fillers[n%len(fillers)])
		content := b.String()

		spans := Split(content)
		tokens := 0
		for i, s := range spans {
			if s.Kind == Token {
				tokens++
				continue
			}
			spans[i].Value = echo(s.Value)
		}
		if got := Join(spans); got != content {
			t.Fatalf("n=%d: round trip mismatch\nwant %q\ngot  %q", n, content, got)
		}
		if tokens != n {
			t.Fatalf("n=%d: expected %d tokens, got %d", n, n, tokens)
		}
	}
}

func echo(s string) string { return s }

func TestIsBlank(t *testing.T) {
	cases := map[string]bool{
		"":                            true,
		"   \n":                       true,
		"<p> </p>":                    true,
		"<br/>&nbsp;":                 true,
		"<script>var x = 1;</script>": true,
		"<p>Hi</p>":                   false,
		"plain":                       false,
		"&amp;":                       false,
	}
	for in, want := range cases {
		if got := IsBlank(in); got != want {
			t.Fatalf("IsBlank(%q) = %v want %v", in, got, want)
		}
	}
}
