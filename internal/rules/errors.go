package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates no rule document exists for the requested task.
var ErrNotFound = errors.New("rule document not found")

// ParseError indicates a rule document exists but could not be decoded or
// failed validation.
type ParseError struct {
	TaskID string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse rules for task %q: %v", e.TaskID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError lists every structural problem found in a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid rule document:\n  - " + strings.Join(e.Problems, "\n  - ")
}
