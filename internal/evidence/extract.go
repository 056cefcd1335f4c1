package evidence

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// keywordRule adds Token when the folded text contains one of Substrings,
// has a word starting with one of Prefixes, or has a word equal to one of
// Words.
type keywordRule struct {
	Token      Evidence
	Substrings []string
	Prefixes   []string
	Words      []string
}

// textRules is evaluated in order; every matching rule contributes its token.
// Only "count" matches anywhere in the text. Short keywords are matched as
// whole words so "sometimes" or "ladder" do not count.
var textRules = []keywordRule{
	{Token: SaidCount, Substrings: []string{"count"}},
	{Token: SaidMultiply, Prefixes: []string{"multipl"}, Words: []string{"times"}},
	{Token: SaidGroups, Prefixes: []string{"group"}},
	{Token: SaidAdd, Prefixes: []string{"addition"}, Words: []string{"add", "adds", "added", "adding", "plus"}},
}

func (r keywordRule) matches(folded string, words []string) bool {
	for _, sub := range r.Substrings {
		if strings.Contains(folded, sub) {
			return true
		}
	}
	for _, w := range words {
		if slices.Contains(r.Words, w) {
			return true
		}
		for _, p := range r.Prefixes {
			if strings.HasPrefix(w, p) {
				return true
			}
		}
	}
	return false
}

// FromText derives evidence from a typed answer.
// Empty text yields the empty set. Any other text yields AnswerTyped plus
// one token per matching keyword rule, compared case-insensitively.
func FromText(text string) Set {
	out := NewSet()
	if text == "" {
		return out
	}
	out.Add(AnswerTyped)

	// cases.Caser is stateful, so each call gets its own.
	folded := cases.Fold().String(text)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, rule := range textRules {
		if rule.matches(folded, words) {
			out.Add(rule.Token)
		}
	}
	return out
}

// FromStrokeCount maps the number of strokes drawn in one action to a token.
// It returns false when no strokes were drawn.
func FromStrokeCount(n int) (Evidence, bool) {
	switch {
	case n == 1:
		return DrawOneStroke, true
	case n > 1:
		return DrawMultipleStrokes, true
	default:
		return 0, false
	}
}
