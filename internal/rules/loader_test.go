package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/abhisek/mathprobe/internal/evidence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
probes:
  - id: P1_HOW_SOLVE
    text: "How did you solve it?"
    speak: true
stop_conditions:
  - id: SC1
    required_evidence: [ANSWER_TYPED, EVIDENCE_SAID_COUNT]
level_assignment:
  - level: SD1_1
    required_evidence: [EVIDENCE_SAID_COUNT]
  - level: SD0
    required_evidence: []
`

func writeRules(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestFileLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "6x8.yaml", validYAML)

	doc, err := NewFileLoader(dir).Load("6x8")
	require.NoError(t, err)

	assert.Equal(t, "6x8", doc.TaskID)
	require.Len(t, doc.Probes, 1)
	assert.Equal(t, Probe{ID: "P1_HOW_SOLVE", Text: "How did you solve it?", Speak: true}, doc.Probes[0])

	require.Len(t, doc.StopConditions, 1)
	assert.Equal(t, evidence.NewSet(evidence.AnswerTyped, evidence.SaidCount), doc.StopConditions[0].Required)

	require.Len(t, doc.LevelAssignment, 2)
	assert.Equal(t, "SD1_1", doc.LevelAssignment[0].Level)
	assert.Equal(t, "SD0", doc.LevelAssignment[1].Level)
	assert.Equal(t, 0, doc.LevelAssignment[1].Required.Len())

	p, ok := doc.Probe("P1_HOW_SOLVE")
	assert.True(t, ok)
	assert.True(t, p.Speak)
	_, ok = doc.Probe("P9")
	assert.False(t, ok)
}

func TestFileLoader_YMLExtension(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "7x3.yml", validYAML)

	doc, err := NewFileLoader(dir).Load("7x3")
	require.NoError(t, err)
	assert.Equal(t, "7x3", doc.TaskID)
}

func TestFileLoader_NotFound(t *testing.T) {
	_, err := NewFileLoader(t.TempDir()).Load("unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileLoader_RejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "rules")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeRules(t, dir, "secret.yaml", validYAML)

	for _, id := range []string{"../secret", "..", ".", "", "a/b", `a\b`} {
		_, err := NewFileLoader(sub).Load(id)
		assert.ErrorIs(t, err, ErrNotFound, "task id %q", id)
	}
}

func TestFileLoader_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "bad.yaml", "probes: [unclosed")

	_, err := NewFileLoader(dir).Load("bad")
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, "bad", pe.TaskID)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileLoader_List(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "6x8.yaml", validYAML)
	writeRules(t, dir, "3x4.yml", validYAML)
	writeRules(t, dir, "README.md", "not a rule file")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	ids, err := NewFileLoader(dir).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"3x4", "6x8"}, ids)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("empty", nil)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "document is empty")
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse("typo", []byte(`
stop_conditions:
  - id: SC1
    required_evidnce: [ANSWER_TYPED]
`))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParse_ValidationProblems(t *testing.T) {
	_, err := Parse("broken", []byte(`
probes:
  - id: P1
    text: "one"
  - id: P1
    text: ""
  - text: "no id"
stop_conditions:
  - id: SC1
    required_evidence: [ANSWER_TYPED, SAID_SOMETHING]
  - id: SC1
    required_evidence: []
level_assignment:
  - level: ""
    required_evidence: [DRAW_WITH_CRAYON]
`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	assert.ElementsMatch(t, []string{
		`duplicate probe id: "P1"`,
		`probe "P1" has no text`,
		`probes[2]: missing id`,
		`stop condition "SC1" references unknown evidence "SAID_SOMETHING"`,
		`duplicate stop condition id: "SC1"`,
		`level_assignment[0]: missing level`,
		`level_assignment[0] references unknown evidence "DRAW_WITH_CRAYON"`,
	}, ve.Problems)
}

func TestParse_RequiresStopCondition(t *testing.T) {
	_, err := Parse("nostop", []byte(`
probes:
  - id: P1
    text: "hi"
`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"no stop conditions defined"}, ve.Problems)
}

func TestShippedRulesAreValid(t *testing.T) {
	ids, err := NewFileLoader(filepath.Join("..", "..", "rules")).List()
	require.NoError(t, err)
	require.NotEmpty(t, ids)

	loader := NewFileLoader(filepath.Join("..", "..", "rules"))
	for _, id := range ids {
		_, err := loader.Load(id)
		assert.NoError(t, err, id)
	}
}
