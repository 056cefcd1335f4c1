package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
// Results are returned newest first.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
	TaskID string    // exact task match ("" = any)
}

// Session lifecycle actions.
const (
	SessionStart = "start"
	SessionEnd   = "end"
)

// SessionEventData captures a session start or end.
type SessionEventData struct {
	SessionID     string
	TaskID        string
	Action        string // SessionStart or SessionEnd
	EvidenceCount int    // on end only
	Complete      bool   // on end only
	DurationSecs  int    // on end only
}

// ProbeEventData captures a probe sent to a student.
type ProbeEventData struct {
	SessionID string
	TaskID    string
	ProbeID   string
}

// OutcomeEventData captures the level assigned when an assessment ends.
type OutcomeEventData struct {
	SessionID    string
	TaskID       string
	Level        string
	Evidence     []string
	DurationSecs int
}

// EventMeta holds the fields every stored event has.
type EventMeta struct {
	Sequence  int64
	Timestamp time.Time
}

type SessionEvent struct {
	EventMeta
	SessionEventData
}

type ProbeEvent struct {
	EventMeta
	ProbeEventData
}

type OutcomeEvent struct {
	EventMeta
	OutcomeEventData
}

// EventRepo provides append and query access to assessment events.
type EventRepo interface {
	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	AppendProbeEvent(ctx context.Context, data ProbeEventData) error
	AppendOutcomeEvent(ctx context.Context, data OutcomeEventData) error

	QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEvent, error)
	QueryProbeEvents(ctx context.Context, opts QueryOpts) ([]ProbeEvent, error)
	QueryOutcomes(ctx context.Context, opts QueryOpts) ([]OutcomeEvent, error)
}
