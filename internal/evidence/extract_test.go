package evidence

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestFromText_FindsCount(t *testing.T) {
	got := FromText("I think I need to count them.")
	assert.Equal(t, NewSet(AnswerTyped, SaidCount), got)
}

func TestFromText_OnlyTyped(t *testing.T) {
	got := FromText("Just moving things around.")
	assert.Equal(t, NewSet(AnswerTyped), got)
}

func TestFromText_Empty(t *testing.T) {
	got := FromText("")
	assert.Equal(t, 0, got.Len())
}

func TestFromText_Keywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Set
	}{
		{"count", "I count them all", NewSet(AnswerTyped, SaidCount)},
		{"counting", "Counting by sixes", NewSet(AnswerTyped, SaidCount)},
		{"times", "6 TIMES 8", NewSet(AnswerTyped, SaidMultiply)},
		{"multiply", "I multiply them", NewSet(AnswerTyped, SaidMultiply)},
		{"groups", "six groups of eight", NewSet(AnswerTyped, SaidGroups)},
		{"plus", "8 plus 8 plus 8", NewSet(AnswerTyped, SaidAdd)},
		{"several", "I made groups and counted them", NewSet(AnswerTyped, SaidGroups, SaidCount)},
		{"multiplied", "I multiplied six by eight", NewSet(AnswerTyped, SaidMultiply)},
		{"multiplication", "multiplication!", NewSet(AnswerTyped, SaidMultiply)},
		{"added", "I added 8 six times", NewSet(AnswerTyped, SaidAdd, SaidMultiply)},
		{"times after digit", "6x8 is 6times8", NewSet(AnswerTyped, SaidMultiply)},
		{"sometimes", "sometimes I just know it", NewSet(AnswerTyped)},
		{"ladder", "I saw it on the ladder", NewSet(AnswerTyped)},
		{"address", "my address is 48", NewSet(AnswerTyped)},
		{"padding", "padding", NewSet(AnswerTyped)},
		{"accounted", "I accounted for it", NewSet(AnswerTyped, SaidCount)},
		{"whitespace only", "   ", NewSet(AnswerTyped)},
		{"digits", "48", NewSet(AnswerTyped)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.Strings(), FromText(tt.text).Strings())
		})
	}
}

func TestFromText_CaseInsensitive(t *testing.T) {
	upper := FromText("I will COUNT them")
	lower := FromText("i will count them")
	assert.Equal(t, lower, upper)
	assert.True(t, upper.Contains(SaidCount))
}

func TestFromStrokeCount(t *testing.T) {
	tests := []struct {
		n      int
		want   Evidence
		wantOK bool
	}{
		{-1, 0, false},
		{0, 0, false},
		{1, DrawOneStroke, true},
		{2, DrawMultipleStrokes, true},
		{40, DrawMultipleStrokes, true},
	}
	for _, tt := range tests {
		got, ok := FromStrokeCount(tt.n)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("FromStrokeCount(%d) = (%v, %v), want (%v, %v)", tt.n, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFromText_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("non-empty text always yields ANSWER_TYPED", prop.ForAll(
		func(s string) bool {
			if s == "" {
				return FromText(s).Len() == 0
			}
			return FromText(s).Contains(AnswerTyped)
		},
		gen.AnyString(),
	))

	properties.Property("extraction is deterministic", prop.ForAll(
		func(s string) bool {
			return equalSets(FromText(s), FromText(s))
		},
		gen.AnyString(),
	))

	properties.Property("ASCII case does not change the result", prop.ForAll(
		func(s string) bool {
			return equalSets(FromText(strings.ToUpper(s)), FromText(strings.ToLower(s)))
		},
		gen.AlphaString(),
	))

	properties.Property("only vocabulary tokens are produced", prop.ForAll(
		func(s string) bool {
			for e := range FromText(s) {
				if !e.Valid() {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func equalSets(a, b Set) bool {
	return a.SubsetOf(b) && b.SubsetOf(a)
}
