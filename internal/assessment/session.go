package assessment

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mathprobe/internal/evidence"
	"github.com/abhisek/mathprobe/internal/rules"
)

// DefaultDrawingProbe is the probe asked once drawing evidence exists.
const DefaultDrawingProbe = "P1_HOW_SOLVE"

// Phase is the lifecycle phase of a session.
type Phase int

const (
	PhaseActive   Phase = iota // Accepting events
	PhaseComplete              // Level assigned; further events are ignored
)

func (p Phase) String() string {
	if p == PhaseComplete {
		return "complete"
	}
	return "active"
}

// StepState holds counters scoped to the current action. It is reset at
// every ActionComplete.
type StepState struct {
	StrokeCount int
}

// Session is the assessment state machine for one student on one task.
//
// A Session performs no I/O and is not safe for concurrent use: callers
// must deliver events one at a time.
type Session struct {
	id           string
	taskID       string
	rules        *rules.Document
	drawingProbe string
	logger       *slog.Logger
	now          func() time.Time

	createdAt   time.Time
	completedAt time.Time

	collected   evidence.Set
	probesAsked map[string]bool
	step        StepState
	phase       Phase
	finalLevel  string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for warnings and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithDrawingProbe sets which probe fires on drawing evidence. An empty id
// keeps DefaultDrawingProbe.
func WithDrawingProbe(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.drawingProbe = id
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New loads the rules for taskID and returns a session in the active phase.
// Any loader failure is returned as an *InitializationError and no session
// is created.
func New(taskID string, loader rules.Loader, opts ...Option) (*Session, error) {
	if loader == nil {
		return nil, &InitializationError{TaskID: taskID, Err: fmt.Errorf("no rule loader configured")}
	}
	doc, err := loader.Load(taskID)
	if err != nil {
		return nil, &InitializationError{TaskID: taskID, Err: err}
	}
	if doc == nil {
		return nil, &InitializationError{TaskID: taskID, Err: fmt.Errorf("loader returned no rules")}
	}

	s := &Session{
		id:           uuid.NewString(),
		taskID:       taskID,
		rules:        doc,
		drawingProbe: DefaultDrawingProbe,
		now:          time.Now,
		collected:    evidence.NewSet(),
		probesAsked:  make(map[string]bool),
		phase:        PhaseActive,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	s.logger = s.logger.With("session_id", s.id, "task_id", s.taskID)
	s.createdAt = s.now()

	s.logger.Info("session initialized",
		"probes", len(doc.Probes),
		"stop_conditions", len(doc.StopConditions),
		"level_rules", len(doc.LevelAssignment))
	return s, nil
}

// Handle applies one event and returns the action to send, or nil.
func (s *Session) Handle(ev Event) Action {
	if s.phase == PhaseComplete {
		s.logger.Warn("event received after assessment complete", "event", fmt.Sprintf("%T", ev))
		return nil
	}

	switch ev := ev.(type) {
	case Stroke:
		s.step.StrokeCount++
		s.logger.Debug("stroke received", "stroke_count", s.step.StrokeCount)
		return nil
	case ActionComplete:
		return s.handleActionComplete()
	case TextSubmit:
		return s.handleTextSubmit(ev.Text)
	case Malformed:
		s.logger.Warn("malformed event", "reason", ev.Reason)
		return Error{Message: ev.Reason}
	default:
		s.logger.Error("unhandled event type", "event", fmt.Sprintf("%T", ev))
		return Error{Message: "Invalid event format received by engine."}
	}
}

func (s *Session) handleActionComplete() Action {
	fresh := evidence.NewSet()
	if e, ok := evidence.FromStrokeCount(s.step.StrokeCount); ok {
		fresh.Add(e)
	}
	s.logger.Info("action complete", "stroke_count", s.step.StrokeCount)
	s.step = StepState{}

	combined := s.collected.Union(fresh)
	s.merge(fresh)

	if !drawingEvidencePresent(combined) || s.probesAsked[s.drawingProbe] {
		return nil
	}

	probe, ok := s.rules.Probe(s.drawingProbe)
	if !ok {
		s.logger.Warn("probe referenced by session logic is missing from rules", "probe_id", s.drawingProbe)
		return nil
	}
	s.probesAsked[probe.ID] = true
	s.logger.Info("asking probe", "probe_id", probe.ID)
	return AskProbe{ProbeID: probe.ID, Text: probe.Text, Speak: probe.Speak}
}

func (s *Session) handleTextSubmit(text string) Action {
	fresh := evidence.FromText(text)
	s.logger.Info("text response received", "length", len(text))

	combined := s.collected.Union(fresh)
	s.merge(fresh)

	sc, ok := satisfiedStopCondition(s.rules, combined)
	if !ok {
		return nil
	}

	level, matched := assignLevel(s.rules, combined)
	if !matched {
		s.logger.Warn("no level rule matched, assigning sentinel", "stop_condition", sc.ID, "level", level)
	}
	s.finalLevel = level
	s.phase = PhaseComplete
	s.completedAt = s.now()
	s.logger.Info("assessment complete", "stop_condition", sc.ID, "level", level)

	return AssessmentComplete{
		SessionID: s.id,
		TaskID:    s.taskID,
		Level:     level,
		Summary:   fmt.Sprintf("Task complete. Level: %s", level),
	}
}

// merge adds fresh evidence to the collected set. Evidence is never removed.
func (s *Session) merge(fresh evidence.Set) {
	if fresh.Len() == 0 {
		return
	}
	s.collected.Merge(fresh)
	s.logger.Debug("evidence added", "new", fresh.Strings(), "collected", s.collected.Strings())
}

func (s *Session) ID() string     { return s.id }
func (s *Session) TaskID() string { return s.taskID }
func (s *Session) Phase() Phase   { return s.phase }
func (s *Session) Complete() bool { return s.phase == PhaseComplete }

// FinalLevel returns the assigned level once the session is complete.
func (s *Session) FinalLevel() (string, bool) {
	if s.phase != PhaseComplete {
		return "", false
	}
	return s.finalLevel, true
}

// Evidence returns a sorted copy of the collected evidence.
func (s *Session) Evidence() []evidence.Evidence {
	return s.collected.Sorted()
}

// ProbesAsked returns the ids of probes already sent, sorted.
func (s *Session) ProbesAsked() []string {
	ids := make([]string, 0, len(s.probesAsked))
	for id := range s.probesAsked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StrokeCount returns the strokes drawn since the last ActionComplete.
func (s *Session) StrokeCount() int { return s.step.StrokeCount }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Duration is the time from creation to completion, or to now while active.
func (s *Session) Duration() time.Duration {
	if s.phase == PhaseComplete {
		return s.completedAt.Sub(s.createdAt)
	}
	return s.now().Sub(s.createdAt)
}
