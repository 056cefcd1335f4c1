package rules

import "github.com/abhisek/mathprobe/internal/evidence"

// Probe is a follow-up prompt the server may send once per session.
type Probe struct {
	ID    string
	Text  string
	Speak bool
}

// StopCondition ends the assessment once all of Required has been observed.
type StopCondition struct {
	ID       string
	Required evidence.Set
}

// LevelRule maps an evidence requirement to a proficiency label.
type LevelRule struct {
	Level    string
	Required evidence.Set
}

// Document is the validated rule set for one task. It is not modified after
// loading; callers must treat the slices as read-only.
type Document struct {
	TaskID          string
	Probes          []Probe
	StopConditions  []StopCondition
	LevelAssignment []LevelRule // evaluated in order, first match wins
}

// Probe returns the probe with the given id.
func (d *Document) Probe(id string) (Probe, bool) {
	for _, p := range d.Probes {
		if p.ID == id {
			return p, true
		}
	}
	return Probe{}, false
}

// rawDocument mirrors the YAML layout before evidence names are resolved.
type rawDocument struct {
	Probes []struct {
		ID    string `yaml:"id"`
		Text  string `yaml:"text"`
		Speak bool   `yaml:"speak"`
	} `yaml:"probes"`
	StopConditions []struct {
		ID               string   `yaml:"id"`
		RequiredEvidence []string `yaml:"required_evidence"`
	} `yaml:"stop_conditions"`
	LevelAssignment []struct {
		Level            string   `yaml:"level"`
		RequiredEvidence []string `yaml:"required_evidence"`
	} `yaml:"level_assignment"`
}
