package assessment

import "fmt"

// InitializationError indicates a session could not be constructed because
// the rules for its task are missing or invalid.
type InitializationError struct {
	TaskID string
	Err    error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialize session for task %q: %v", e.TaskID, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }
