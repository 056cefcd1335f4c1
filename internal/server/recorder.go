package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/abhisek/mathprobe/internal/assessment"
	"github.com/abhisek/mathprobe/internal/evidence"
	"github.com/abhisek/mathprobe/internal/store"
)

// recordTimeout bounds a single event log write.
const recordTimeout = 5 * time.Second

// recorder appends session activity to the event log. A failed write is
// logged and otherwise ignored; it never affects the session.
type recorder struct {
	repo   store.EventRepo // nil disables recording
	logger *slog.Logger
}

func (r recorder) sessionStarted(s *assessment.Session) {
	r.write("session start", func(ctx context.Context) error {
		return r.repo.AppendSessionEvent(ctx, store.SessionEventData{
			SessionID: s.ID(),
			TaskID:    s.TaskID(),
			Action:    store.SessionStart,
		})
	})
}

func (r recorder) sessionEnded(s *assessment.Session) {
	r.write("session end", func(ctx context.Context) error {
		return r.repo.AppendSessionEvent(ctx, store.SessionEventData{
			SessionID:     s.ID(),
			TaskID:        s.TaskID(),
			Action:        store.SessionEnd,
			EvidenceCount: len(s.Evidence()),
			Complete:      s.Complete(),
			DurationSecs:  int(s.Duration().Seconds()),
		})
	})
}

// action records the outcome of one handled event.
func (r recorder) action(s *assessment.Session, a assessment.Action) {
	switch a := a.(type) {
	case assessment.AskProbe:
		r.write("probe", func(ctx context.Context) error {
			return r.repo.AppendProbeEvent(ctx, store.ProbeEventData{
				SessionID: s.ID(),
				TaskID:    s.TaskID(),
				ProbeID:   a.ProbeID,
			})
		})
	case assessment.AssessmentComplete:
		r.write("outcome", func(ctx context.Context) error {
			return r.repo.AppendOutcomeEvent(ctx, store.OutcomeEventData{
				SessionID:    s.ID(),
				TaskID:       s.TaskID(),
				Level:        a.Level,
				Evidence:     evidence.NewSet(s.Evidence()...).Strings(),
				DurationSecs: int(s.Duration().Seconds()),
			})
		})
	}
}

func (r recorder) write(what string, fn func(ctx context.Context) error) {
	if r.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		r.logger.Warn("failed to record event", "event", what, "error", err)
	}
}
