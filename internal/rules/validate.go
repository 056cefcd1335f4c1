package rules

import (
	"fmt"
	"strings"

	"github.com/abhisek/mathprobe/internal/evidence"
)

// resolve converts a raw document into a Document, checking every
// structural rule. All problems are collected and returned together.
func resolve(taskID string, raw *rawDocument) (*Document, error) {
	var errs []string
	doc := &Document{TaskID: taskID}

	probeIDs := make(map[string]bool, len(raw.Probes))
	for i, p := range raw.Probes {
		id := strings.TrimSpace(p.ID)
		switch {
		case id == "":
			errs = append(errs, fmt.Sprintf("probes[%d]: missing id", i))
		case probeIDs[id]:
			errs = append(errs, fmt.Sprintf("duplicate probe id: %q", id))
		}
		probeIDs[id] = true
		if strings.TrimSpace(p.Text) == "" {
			errs = append(errs, fmt.Sprintf("probe %q has no text", id))
		}
		doc.Probes = append(doc.Probes, Probe{ID: id, Text: p.Text, Speak: p.Speak})
	}

	if len(raw.StopConditions) == 0 {
		errs = append(errs, "no stop conditions defined")
	}
	stopIDs := make(map[string]bool, len(raw.StopConditions))
	for i, sc := range raw.StopConditions {
		id := strings.TrimSpace(sc.ID)
		switch {
		case id == "":
			errs = append(errs, fmt.Sprintf("stop_conditions[%d]: missing id", i))
		case stopIDs[id]:
			errs = append(errs, fmt.Sprintf("duplicate stop condition id: %q", id))
		}
		stopIDs[id] = true
		required, problems := resolveEvidence(fmt.Sprintf("stop condition %q", id), sc.RequiredEvidence)
		errs = append(errs, problems...)
		doc.StopConditions = append(doc.StopConditions, StopCondition{ID: id, Required: required})
	}

	for i, lr := range raw.LevelAssignment {
		level := strings.TrimSpace(lr.Level)
		if level == "" {
			errs = append(errs, fmt.Sprintf("level_assignment[%d]: missing level", i))
		}
		required, problems := resolveEvidence(fmt.Sprintf("level_assignment[%d]", i), lr.RequiredEvidence)
		errs = append(errs, problems...)
		doc.LevelAssignment = append(doc.LevelAssignment, LevelRule{Level: level, Required: required})
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Problems: errs}
	}
	return doc, nil
}

// resolveEvidence maps names to tokens, reporting every unknown name.
func resolveEvidence(owner string, names []string) (evidence.Set, []string) {
	var errs []string
	set := evidence.NewSet()
	for _, name := range names {
		e, err := evidence.Parse(strings.TrimSpace(name))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s references unknown evidence %q", owner, name))
			continue
		}
		set.Add(e)
	}
	return set, errs
}
