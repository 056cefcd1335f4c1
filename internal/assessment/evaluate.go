package assessment

import (
	"github.com/abhisek/mathprobe/internal/evidence"
	"github.com/abhisek/mathprobe/internal/rules"
)

// UndeterminedLevel is assigned when a stop condition fires but no level
// rule matches the collected evidence.
const UndeterminedLevel = "undetermined"

// drawingEvidencePresent reports whether any drawing action has been
// finalized into evidence.
func drawingEvidencePresent(ev evidence.Set) bool {
	return ev.ContainsAny(evidence.DrawOneStroke, evidence.DrawMultipleStrokes)
}

// satisfiedStopCondition returns the first stop condition, in document
// order, whose requirements are all present in ev.
func satisfiedStopCondition(doc *rules.Document, ev evidence.Set) (rules.StopCondition, bool) {
	for _, sc := range doc.StopConditions {
		if sc.Required.SubsetOf(ev) {
			return sc, true
		}
	}
	return rules.StopCondition{}, false
}

// assignLevel walks the level rules in document order and returns the label
// of the first one satisfied by ev. Later rules are never consulted once one
// matches, even if they are more specific.
func assignLevel(doc *rules.Document, ev evidence.Set) (string, bool) {
	for _, lr := range doc.LevelAssignment {
		if lr.Required.SubsetOf(ev) {
			return lr.Level, true
		}
	}
	return UndeterminedLevel, false
}
