package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	if data.SessionID == "" || data.Action == "" {
		return fmt.Errorf("session event: session id and action are required")
	}
	err := r.insert(ctx, tableSessionEvents,
		[]string{"session_id", "task_id", "action", "evidence_count", "complete", "duration_secs"},
		[]any{data.SessionID, data.TaskID, data.Action, data.EvidenceCount, data.Complete, data.DurationSecs},
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEvent, error) {
	query, args := selectEvents(tableSessionEvents,
		[]string{"session_id", "task_id", "action", "evidence_count", "complete", "duration_secs"}, opts)

	var events []SessionEvent
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		var e SessionEvent
		var ts int64
		if err := rows.Scan(&e.Sequence, &ts, &e.SessionID, &e.TaskID, &e.Action,
			&e.EvidenceCount, &e.Complete, &e.DurationSecs); err != nil {
			return err
		}
		e.Timestamp = fromMillis(ts)
		events = append(events, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	return events, nil
}
