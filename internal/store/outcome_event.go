package store

import (
	"context"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendOutcomeEvent(ctx context.Context, data OutcomeEventData) error {
	if data.SessionID == "" || data.Level == "" {
		return fmt.Errorf("outcome event: session id and level are required")
	}
	evidence := data.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	encoded, err := json.Marshal(evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	err = r.insert(ctx, tableOutcomeEvents,
		[]string{"session_id", "task_id", "level", "evidence", "duration_secs"},
		[]any{data.SessionID, data.TaskID, data.Level, string(encoded), data.DurationSecs},
	)
	if err != nil {
		return fmt.Errorf("save outcome event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryOutcomes(ctx context.Context, opts QueryOpts) ([]OutcomeEvent, error) {
	query, args := selectEvents(tableOutcomeEvents,
		[]string{"session_id", "task_id", "level", "evidence", "duration_secs"}, opts)

	var events []OutcomeEvent
	err := r.queryRows(ctx, query, args, func(rows *entsql.Rows) error {
		var e OutcomeEvent
		var ts int64
		var encoded string
		if err := rows.Scan(&e.Sequence, &ts, &e.SessionID, &e.TaskID, &e.Level, &encoded, &e.DurationSecs); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(encoded), &e.Evidence); err != nil {
			return fmt.Errorf("decode evidence for sequence %d: %w", e.Sequence, err)
		}
		e.Timestamp = fromMillis(ts)
		events = append(events, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	return events, nil
}
