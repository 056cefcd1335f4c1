package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// eventColumns returns the columns every event table starts with, followed
// by extra. Indexes below refer to columns by position.
func eventColumns(extra ...*schema.Column) []*schema.Column {
	return append([]*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "session_id", Type: field.TypeString},
		{Name: "task_id", Type: field.TypeString},
	}, extra...)
}

var (
	sessionEventsColumns = eventColumns(
		&schema.Column{Name: "action", Type: field.TypeString},
		&schema.Column{Name: "evidence_count", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "complete", Type: field.TypeBool, Default: false},
		&schema.Column{Name: "duration_secs", Type: field.TypeInt, Default: 0},
	)
	sessionEventsTable = &schema.Table{
		Name:       tableSessionEvents,
		Columns:    sessionEventsColumns,
		PrimaryKey: []*schema.Column{sessionEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "sessionevent_session_id", Columns: []*schema.Column{sessionEventsColumns[3]}},
			{Name: "sessionevent_timestamp", Columns: []*schema.Column{sessionEventsColumns[2]}},
		},
	}

	probeEventsColumns = eventColumns(
		&schema.Column{Name: "probe_id", Type: field.TypeString},
	)
	probeEventsTable = &schema.Table{
		Name:       tableProbeEvents,
		Columns:    probeEventsColumns,
		PrimaryKey: []*schema.Column{probeEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "probeevent_session_id", Columns: []*schema.Column{probeEventsColumns[3]}},
		},
	}

	outcomeEventsColumns = eventColumns(
		&schema.Column{Name: "level", Type: field.TypeString},
		&schema.Column{Name: "evidence", Type: field.TypeString, Default: "[]"},
		&schema.Column{Name: "duration_secs", Type: field.TypeInt, Default: 0},
	)
	outcomeEventsTable = &schema.Table{
		Name:       tableOutcomeEvents,
		Columns:    outcomeEventsColumns,
		PrimaryKey: []*schema.Column{outcomeEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "outcomeevent_task_id", Columns: []*schema.Column{outcomeEventsColumns[4]}},
			{Name: "outcomeevent_timestamp", Columns: []*schema.Column{outcomeEventsColumns[2]}},
		},
	}

	// eventTables holds every table created by migrate.
	eventTables = []*schema.Table{
		sessionEventsTable,
		probeEventsTable,
		outcomeEventsTable,
	}
)

// migrate creates or updates the event tables with ent's migrator.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	if err := m.Create(ctx, eventTables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
