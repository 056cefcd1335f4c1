package evidence

import (
	"errors"
	"fmt"
)

// Evidence is a symbolic fact about demonstrated student behavior.
// The vocabulary is closed: new tokens are added here, never built from input.
type Evidence int

const (
	DrawAny             Evidence = iota + 1 // Any drawing action occurred
	AnswerTyped                             // Any text answer was typed
	DrawOneStroke                           // Exactly one stroke in an action
	DrawMultipleStrokes                     // More than one stroke in an action
	SaidCount                               // Answer mentioned counting
	SaidMultiply                            // Answer mentioned multiplying or "times"
	SaidGroups                              // Answer mentioned groups
	SaidAdd                                 // Answer mentioned adding
)

// ErrUnknownEvidence is returned when an identifier is not in the vocabulary.
var ErrUnknownEvidence = errors.New("unknown evidence")

var names = map[Evidence]string{
	DrawAny:             "DRAW_ANY",
	AnswerTyped:         "ANSWER_TYPED",
	DrawOneStroke:       "DRAW_ONE_STROKE",
	DrawMultipleStrokes: "DRAW_MULTIPLE_STROKES",
	SaidCount:           "EVIDENCE_SAID_COUNT",
	SaidMultiply:        "EVIDENCE_SAID_MULTIPLY",
	SaidGroups:          "EVIDENCE_SAID_GROUPS",
	SaidAdd:             "EVIDENCE_SAID_ADD",
}

var byName = func() map[string]Evidence {
	m := make(map[string]Evidence, len(names))
	for e, n := range names {
		m[n] = e
	}
	return m
}()

// All returns every token in the vocabulary in declaration order.
func All() []Evidence {
	all := make([]Evidence, 0, len(names))
	for e := DrawAny; e <= SaidAdd; e++ {
		all = append(all, e)
	}
	return all
}

// String returns the stable identifier used in rule files and logs.
func (e Evidence) String() string {
	if n, ok := names[e]; ok {
		return n
	}
	return fmt.Sprintf("Evidence(%d)", int(e))
}

// Valid reports whether e is a member of the vocabulary.
func (e Evidence) Valid() bool {
	_, ok := names[e]
	return ok
}

// Parse resolves a stable identifier to its token.
func Parse(s string) (Evidence, error) {
	if e, ok := byName[s]; ok {
		return e, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvidence, s)
}

func (e Evidence) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEvidence, int(e))
	}
	return []byte(names[e]), nil
}

func (e *Evidence) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
