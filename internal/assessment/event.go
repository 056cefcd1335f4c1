package assessment

// Event is an inbound student interaction. The set of variants is closed:
// Stroke, ActionComplete, TextSubmit and Malformed.
type Event interface {
	isEvent()
}

// Stroke records one pen stroke inside the current action.
type Stroke struct {
	Points []int
}

// ActionComplete marks the end of an action (the student pressed "done").
type ActionComplete struct{}

// TextSubmit carries a typed answer.
type TextSubmit struct {
	Text string
}

// Malformed is an inbound payload that matched no known variant.
type Malformed struct {
	Reason string
}

func (Stroke) isEvent()         {}
func (ActionComplete) isEvent() {}
func (TextSubmit) isEvent()     {}
func (Malformed) isEvent()      {}
