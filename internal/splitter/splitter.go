// Package splitter segments document content into translatable text and
// opaque bracket tokens.
//
// Token grammar: a token is "[" followed by one or more characters other than
// "]", followed by "]". Matching is leftmost and lazy; tokens never nest, so
// "[a [b] c]" yields the token "[a [b]" followed by the text " c]". "[]" is
// plain text. Everything between and around tokens is a text span.
package splitter

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Kind distinguishes text spans from tokens.
type Kind int

const (
	Text Kind = iota
	Token
)

func (k Kind) String() string {
	if k == Token {
		return "token"
	}
	return "text"
}

// Span is one segment of split content.
type Span struct {
	Kind  Kind
	Value string
}

var tokenRE = regexp.MustCompile(`\[[^\]]+\]`)

// Split returns the ordered spans of content. Empty runs are omitted;
// whitespace-only runs are kept as text spans.
func Split(content string) []Span {
	matches := tokenRE.FindAllStringIndex(content, -1)
	spans := make([]Span, 0, 2*len(matches)+1)
	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			spans = append(spans, Span{Kind: Text, Value: content[pos:m[0]]})
		}
		spans = append(spans, Span{Kind: Token, Value: content[m[0]:m[1]]})
		pos = m[1]
	}
	if pos < len(content) {
		spans = append(spans, Span{Kind: Text, Value: content[pos:]})
	}
	return spans
}

// Join concatenates span values in order.
func Join(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Value)
	}
	return b.String()
}

// IsBlank reports whether text carries no human-readable prose once markup
// is stripped, entities decoded and whitespace trimmed.
func IsBlank(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	return strings.TrimSpace(StripTags(text)) == ""
}

// StripTags returns the text nodes of an HTML fragment with entities decoded.
// Script and style bodies are dropped.
func StripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way the text so far is all we get.
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name string) bool {
	return name == "script" || name == "style"
}
