package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/mathprobe/internal/store"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the assessment event log",
}

var eventsOutcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "List assigned levels, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, opts, err := openEventQuery(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryOutcomes(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query outcomes: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No outcomes found.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-8s  %-36s  %-14s  %6s  %s\n",
			"Seq", "Timestamp", "Task", "Session", "Level", "Secs", "Evidence")
		fmt.Fprintln(out, strings.Repeat("─", 130))
		for _, e := range events {
			fmt.Fprintf(out, "%-5d  %-19s  %-8s  %-36s  %-14s  %6d  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format(timeLayout),
				e.TaskID,
				e.SessionID,
				e.Level,
				e.DurationSecs,
				strings.Join(e.Evidence, ","),
			)
		}
		return nil
	},
}

var eventsSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List session starts and ends, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, opts, err := openEventQuery(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QuerySessionEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query session events: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No session events found.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-8s  %-36s  %-6s  %8s  %6s  %s\n",
			"Seq", "Timestamp", "Task", "Session", "Action", "Evidence", "Secs", "Done")
		fmt.Fprintln(out, strings.Repeat("─", 110))
		for _, e := range events {
			evidenceCount, secs, done := "", "", ""
			if e.Action == store.SessionEnd {
				evidenceCount = fmt.Sprint(e.EvidenceCount)
				secs = fmt.Sprint(e.DurationSecs)
				done = "✗"
				if e.Complete {
					done = "✓"
				}
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-8s  %-36s  %-6s  %8s  %6s  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format(timeLayout),
				e.TaskID,
				e.SessionID,
				e.Action,
				evidenceCount,
				secs,
				done,
			)
		}
		return nil
	},
}

var eventsProbesCmd = &cobra.Command{
	Use:   "probes",
	Short: "List probes sent to students, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, opts, err := openEventQuery(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryProbeEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query probe events: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No probe events found.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-8s  %-36s  %s\n", "Seq", "Timestamp", "Task", "Session", "Probe")
		fmt.Fprintln(out, strings.Repeat("─", 96))
		for _, e := range events {
			fmt.Fprintf(out, "%-5d  %-19s  %-8s  %-36s  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format(timeLayout),
				e.TaskID,
				e.SessionID,
				e.ProbeID,
			)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{eventsOutcomesCmd, eventsSessionsCmd, eventsProbesCmd} {
		c.Flags().Int("limit", 20, "Maximum number of events to show (0 = all)")
		c.Flags().String("task", "", "Only show events for this task")
		eventsCmd.AddCommand(c)
	}
}

func openEventQuery(cmd *cobra.Command) (*store.Store, store.QueryOpts, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	task, _ := cmd.Flags().GetString("task")
	if limit < 0 {
		return nil, store.QueryOpts{}, fmt.Errorf("--limit must not be negative")
	}
	s, err := openStore(cmd)
	if err != nil {
		return nil, store.QueryOpts{}, err
	}
	return s, store.QueryOpts{Limit: limit, TaskID: task}, nil
}
