// Package protocol converts between WebSocket JSON frames and the typed
// events and actions of the assessment state machine.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/mathprobe/internal/assessment"
)

// Inbound frame types.
const (
	TypeDrawStroke     = "draw_stroke"
	TypeActionComplete = "action_complete"
	TypeSubmitText     = "submit_text_response"
)

// MaxTextLength bounds a typed answer.
const MaxTextLength = 4096

// ErrNotJSON is returned by Decode when the payload is not valid JSON.
var ErrNotJSON = errors.New("payload is not JSON")

// Frame is a decoded inbound message. Event is always set; frames that fail
// validation carry an assessment.Malformed event.
type Frame struct {
	Type   string
	TaskID string
	Event  assessment.Event
}

// Valid reports whether the frame decoded to a recognized event.
func (f Frame) Valid() bool {
	_, bad := f.Event.(assessment.Malformed)
	return !bad
}

type inbound struct {
	Type       string `json:"type"`
	TaskID     string `json:"task_id"`
	StrokeData []int  `json:"stroke_data"`
	Text       string `json:"text"`
}

// Decode parses and validates one inbound frame.
// Only non-JSON input is an error; everything else becomes a Frame.
func Decode(raw []byte) (Frame, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}

	// Report unknown types by name before running the schema, which would
	// only say the enum did not match.
	if obj, ok := doc.(map[string]any); ok {
		if t, ok := obj["type"].(string); ok && !knownType(t) {
			return malformed(t, fmt.Sprintf("Unknown message type: %s", t)), nil
		}
	}
	if reason, ok := validate(doc); !ok {
		return malformed("", reason), nil
	}

	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return malformed("", "Invalid message format received."), nil
	}

	f := Frame{Type: msg.Type, TaskID: msg.TaskID}
	switch msg.Type {
	case TypeDrawStroke:
		f.Event = assessment.Stroke{Points: msg.StrokeData}
	case TypeActionComplete:
		f.Event = assessment.ActionComplete{}
	case TypeSubmitText:
		f.Event = assessment.TextSubmit{Text: msg.Text}
	}
	return f, nil
}

func knownType(t string) bool {
	switch t {
	case TypeDrawStroke, TypeActionComplete, TypeSubmitText:
		return true
	}
	return false
}

func malformed(frameType, reason string) Frame {
	return Frame{Type: frameType, Event: assessment.Malformed{Reason: reason}}
}

// Message is the JSON shape of every outbound action.
type Message struct {
	Type          string `json:"type"`
	ProbeID       string `json:"probe_id,omitempty"`
	Text          string `json:"text,omitempty"`
	Speak         *bool  `json:"speak,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	TaskID        string `json:"task_id,omitempty"`
	Level         string `json:"level,omitempty"`
	ResultSummary string `json:"result_summary,omitempty"`
	Message       string `json:"message,omitempty"`
}

// NewMessage converts an action to its wire form.
func NewMessage(a assessment.Action) (Message, error) {
	switch a := a.(type) {
	case assessment.AskProbe:
		speak := a.Speak
		return Message{Type: string(a.Kind()), ProbeID: a.ProbeID, Text: a.Text, Speak: &speak}, nil
	case assessment.AssessmentComplete:
		return Message{
			Type:          string(a.Kind()),
			SessionID:     a.SessionID,
			TaskID:        a.TaskID,
			Level:         a.Level,
			ResultSummary: a.Summary,
		}, nil
	case assessment.Error:
		return ErrorMessage(a.Message), nil
	default:
		return Message{}, fmt.Errorf("unsupported action %T", a)
	}
}

// ErrorMessage builds an error frame that did not originate in a session.
func ErrorMessage(text string) Message {
	return Message{Type: string(assessment.KindError), Message: text}
}

// Encode converts an action to JSON bytes.
func Encode(a assessment.Action) ([]byte, error) {
	msg, err := NewMessage(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
