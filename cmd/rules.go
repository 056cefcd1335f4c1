package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/mathprobe/internal/evidence"
	"github.com/abhisek/mathprobe/internal/rules"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate task rule files",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with a rule file",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := rulesLoader(cmd)
		if err != nil {
			return err
		}
		tasks, err := loader.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(tasks) == 0 {
			fmt.Fprintf(out, "No rule files found in %s.\n", loader.Dir)
			return nil
		}

		fmt.Fprintf(out, "%-16s  %6s  %6s  %6s  %s\n", "Task", "Probes", "Stops", "Levels", "Status")
		fmt.Fprintln(out, strings.Repeat("─", 56))
		for _, id := range tasks {
			doc, err := loader.Load(id)
			if err != nil {
				fmt.Fprintf(out, "%-16s  %6s  %6s  %6s  %s\n", id, "-", "-", "-", "invalid")
				continue
			}
			fmt.Fprintf(out, "%-16s  %6d  %6d  %6d  %s\n", id,
				len(doc.Probes), len(doc.StopConditions), len(doc.LevelAssignment), "ok")
		}
		fmt.Fprintf(out, "\n%d tasks\n", len(tasks))
		return nil
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate [task...]",
	Short: "Validate rule files (all tasks when none are named)",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := rulesLoader(cmd)
		if err != nil {
			return err
		}
		tasks := args
		if len(tasks) == 0 {
			if tasks, err = loader.List(); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, id := range tasks {
			if _, err := loader.Load(id); err != nil {
				failed++
				fmt.Fprintf(out, "✗ %s: %v\n", id, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d rule files invalid", failed, len(tasks))
		}
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <task>",
	Short: "Print the resolved rules for a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := rulesLoader(cmd)
		if err != nil {
			return err
		}
		doc, err := loader.Load(args[0])
		if errors.Is(err, rules.ErrNotFound) {
			return fmt.Errorf("no rules for task %q in %s", args[0], loader.Dir)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		sep := strings.Repeat("─", 60)
		fmt.Fprintf(out, "Task: %s\n", doc.TaskID)

		fmt.Fprintf(out, "\nProbes\n%s\n", sep)
		for _, p := range doc.Probes {
			speak := ""
			if p.Speak {
				speak = " (spoken)"
			}
			fmt.Fprintf(out, "%-20s  %s%s\n", p.ID, p.Text, speak)
		}

		fmt.Fprintf(out, "\nStop conditions\n%s\n", sep)
		for _, sc := range doc.StopConditions {
			fmt.Fprintf(out, "%-20s  %s\n", sc.ID, joinEvidence(sc.Required))
		}

		fmt.Fprintf(out, "\nLevels (first match wins)\n%s\n", sep)
		for i, l := range doc.LevelAssignment {
			fmt.Fprintf(out, "%d. %-17s  %s\n", i+1, l.Level, joinEvidence(l.Required))
		}
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesShowCmd)
}

func rulesLoader(cmd *cobra.Command) (*rules.FileLoader, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return rules.NewFileLoader(cfg.RulesDir), nil
}

func joinEvidence(s evidence.Set) string {
	if s.Len() == 0 {
		return "(always)"
	}
	return strings.Join(s.Strings(), " + ")
}
