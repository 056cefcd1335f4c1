package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendProbeEvent(ctx context.Context, data ProbeEventData) error {
	if data.SessionID == "" || data.ProbeID == "" {
		return fmt.Errorf("probe event: session id and probe id are required")
	}
	err := r.insert(ctx, tableProbeEvents,
		[]string{"session_id", "task_id", "probe_id"},
		[]any{data.SessionID, data.TaskID, data.ProbeID},
	)
	if err != nil {
		return fmt.Errorf("save probe event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryProbeEvents(ctx context.Context, opts QueryOpts) ([]ProbeEvent, error) {
	query, args := selectEvents(tableProbeEvents, []string{"session_id", "task_id", "probe_id"}, opts)

	var events []ProbeEvent
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		var e ProbeEvent
		var ts int64
		if err := rows.Scan(&e.Sequence, &ts, &e.SessionID, &e.TaskID, &e.ProbeID); err != nil {
			return err
		}
		e.Timestamp = fromMillis(ts)
		events = append(events, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query probe events: %w", err)
	}
	return events, nil
}
