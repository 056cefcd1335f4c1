package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	// Each test gets its own named shared-cache database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedRepo returns an event repo whose clock advances one minute per event.
func fixedRepo(s *Store, start time.Time) *eventRepo {
	r := s.EventRepo().(*eventRepo)
	next := start
	r.now = func() time.Time {
		cur := next
		next = next.Add(time.Minute)
		return cur
	}
	return r
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil database")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here. It is tested with file-based DBs.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestWALModeFileDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestReopenKeepsSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.EventRepo().AppendProbeEvent(ctx, ProbeEventData{SessionID: "a", TaskID: "6x8", ProbeID: "P1"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EventRepo().AppendProbeEvent(ctx, ProbeEventData{SessionID: "b", TaskID: "6x8", ProbeID: "P1"}))

	events, err := s.EventRepo().QueryProbeEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].Sequence)
	assert.Equal(t, int64(1), events[1].Sequence)
}

func TestSessionEvents(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := fixedRepo(s, start)
	ctx := context.Background()

	require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{SessionID: "s1", TaskID: "6x8", Action: SessionStart}))
	require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{
		SessionID: "s1", TaskID: "6x8", Action: SessionEnd,
		EvidenceCount: 3, Complete: true, DurationSecs: 42,
	}))

	events, err := repo.QuerySessionEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	end := events[0]
	assert.Equal(t, SessionEnd, end.Action)
	assert.Equal(t, 3, end.EvidenceCount)
	assert.True(t, end.Complete)
	assert.Equal(t, 42, end.DurationSecs)
	assert.Equal(t, start.Add(time.Minute), end.Timestamp)

	begin := events[1]
	assert.Equal(t, SessionStart, begin.Action)
	assert.False(t, begin.Complete)
	assert.Equal(t, start, begin.Timestamp)
	assert.Less(t, begin.Sequence, end.Sequence)
}

func TestOutcomeEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendOutcomeEvent(ctx, OutcomeEventData{
		SessionID: "s1", TaskID: "6x8", Level: "SD1_1",
		Evidence: []string{"ANSWER_TYPED", "EVIDENCE_SAID_COUNT"}, DurationSecs: 12,
	}))
	require.NoError(t, repo.AppendOutcomeEvent(ctx, OutcomeEventData{SessionID: "s2", TaskID: "7x3", Level: "undetermined"}))

	all, err := repo.QueryOutcomes(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s2", all[0].SessionID)
	assert.Equal(t, []string{}, all[0].Evidence)
	assert.Equal(t, []string{"ANSWER_TYPED", "EVIDENCE_SAID_COUNT"}, all[1].Evidence)
	assert.Equal(t, 12, all[1].DurationSecs)

	only, err := repo.QueryOutcomes(ctx, QueryOpts{TaskID: "6x8"})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "SD1_1", only[0].Level)
}

func TestAppendValidation(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	assert.Error(t, repo.AppendSessionEvent(ctx, SessionEventData{TaskID: "6x8", Action: SessionStart}))
	assert.Error(t, repo.AppendProbeEvent(ctx, ProbeEventData{SessionID: "s1"}))
	assert.Error(t, repo.AppendOutcomeEvent(ctx, OutcomeEventData{SessionID: "s1"}))
}

func TestQueryOpts(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := fixedRepo(s, start)
	ctx := context.Background()

	// Sequences 1..5, timestamps start+0..start+4m.
	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.AppendProbeEvent(ctx, ProbeEventData{
			SessionID: fmt.Sprintf("s%d", i), TaskID: "6x8", ProbeID: "P1_HOW_SOLVE",
		}))
	}

	tests := []struct {
		name string
		opts QueryOpts
		want []int64
	}{
		{"all newest first", QueryOpts{}, []int64{5, 4, 3, 2, 1}},
		{"limit", QueryOpts{Limit: 2}, []int64{5, 4}},
		{"after", QueryOpts{After: 3}, []int64{5, 4}},
		{"before", QueryOpts{Before: 3}, []int64{2, 1}},
		{"from", QueryOpts{From: start.Add(3 * time.Minute)}, []int64{5, 4}},
		{"to", QueryOpts{To: start.Add(time.Minute)}, []int64{2, 1}},
		{"window", QueryOpts{After: 1, Before: 5, Limit: 2}, []int64{4, 3}},
		{"other task", QueryOpts{TaskID: "7x3"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := repo.QueryProbeEvents(ctx, tt.opts)
			require.NoError(t, err)
			var got []int64
			for _, e := range events {
				got = append(got, e.Sequence)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSequenceSharedAcrossTables(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{SessionID: "s1", TaskID: "6x8", Action: SessionStart}))
	require.NoError(t, repo.AppendProbeEvent(ctx, ProbeEventData{SessionID: "s1", TaskID: "6x8", ProbeID: "P1"}))
	require.NoError(t, repo.AppendOutcomeEvent(ctx, OutcomeEventData{SessionID: "s1", TaskID: "6x8", Level: "SD1_1"}))

	sessions, err := repo.QuerySessionEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	probes, err := repo.QueryProbeEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	outcomes, err := repo.QueryOutcomes(ctx, QueryOpts{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), sessions[0].Sequence)
	assert.Equal(t, int64(2), probes[0].Sequence)
	assert.Equal(t, int64(3), outcomes[0].Sequence)
}

func TestMigrateCreatesEventTables(t *testing.T) {
	s := openTestStore(t)

	var names []string
	rows, err := s.DB().Query(`SELECT name FROM sqlite_master WHERE type IN ('table', 'index') AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())

	for _, want := range []string{
		"session_events", "probe_events", "outcome_events", "global_sequence",
		"sessionevent_session_id", "probeevent_session_id", "outcomeevent_task_id",
	} {
		assert.Contains(t, names, want)
	}

	// Running the migration again on an up-to-date schema is a no-op.
	require.NoError(t, migrate(context.Background(), s.drv))
}

func TestOpenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.EventRepo().AppendOutcomeEvent(ctx, OutcomeEventData{SessionID: "s1", TaskID: "6x8", Level: "SD1_1"}))
	require.NoError(t, s.Close())

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer ro.Close()

	outcomes, err := ro.EventRepo().QueryOutcomes(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "SD1_1", outcomes[0].Level)

	err = ro.EventRepo().AppendProbeEvent(ctx, ProbeEventData{SessionID: "s1", TaskID: "6x8", ProbeID: "P1"})
	assert.ErrorIs(t, err, ErrReadOnly)

	_, err = ro.DB().Exec(`INSERT INTO probe_events (sequence, timestamp, session_id, task_id, probe_id) VALUES (9, 0, 'x', 'y', 'z')`)
	assert.Error(t, err, "read-only connection must reject writes")
}

func TestOpenReadOnly_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.db")
	_, err := OpenReadOnly(path)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}
