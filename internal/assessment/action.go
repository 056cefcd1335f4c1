package assessment

// ActionKind identifies an outbound action variant.
type ActionKind string

const (
	KindAskProbe           ActionKind = "ask_probe"
	KindAssessmentComplete ActionKind = "assessment_complete"
	KindError              ActionKind = "error"
)

// Action is an outbound instruction for the transport. Handle returns a nil
// Action when nothing should be sent.
type Action interface {
	Kind() ActionKind
}

// AskProbe asks the student a follow-up question.
type AskProbe struct {
	ProbeID string
	Text    string
	Speak   bool
}

// AssessmentComplete declares the session finished with a level.
type AssessmentComplete struct {
	SessionID string
	TaskID    string
	Level     string
	Summary   string
}

// Error reports a problem with an inbound event.
type Error struct {
	Message string
}

func (AskProbe) Kind() ActionKind           { return KindAskProbe }
func (AssessmentComplete) Kind() ActionKind { return KindAssessmentComplete }
func (Error) Kind() ActionKind              { return KindError }
