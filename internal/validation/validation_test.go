package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indusense/testgen/internal/models"
)

func twoSignalProject(a, b string) *models.Project {
	return &models.Project{
		ID:     "P1",
		System: "Chamber",
		Signals: []models.Signal{
			{ID: a, Type: models.SignalTypeTemperature, Range: "0-100 C"},
			{ID: b, Type: models.SignalTypePressure, Range: "0-10 bar"},
		},
		Requirements: []models.Requirement{{ID: "R1", Text: "Alarm", Priority: models.PriorityHigh}},
	}
}

const goodContent = `## Test 1: S1
**Procedure**:
1. Apply reference.
**Expected Result**: Reading within tolerance.
**Equipment**: Reference probe.
**Safety**: Use caution.
Electronic signature: ______
`

func TestProjectValidator_Passes(t *testing.T) {
	p := twoSignalProject("S1", "S2")
	r := ProjectValidator{}.Validate(p)
	assert.True(t, r.Passed)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, 100.0, r.CoveragePct)
	assert.NoError(t, CheckProject(p))
}

func TestProjectValidator_AccumulatesEverything(t *testing.T) {
	p := &models.Project{}
	r := ProjectValidator{}.Validate(p)

	assert.False(t, r.Passed)
	assert.Equal(t, []string{
		"Project ID is required",
		"System name is required",
		"No signals defined - cannot generate tests",
	}, r.Errors)
	assert.Equal(t, []string{"No requirements defined - tests may lack traceability"}, r.Warnings)
	assert.Equal(t, 0.0, r.CoveragePct)
}

func TestProjectValidator_Duplicates(t *testing.T) {
	p := twoSignalProject("S1", "S1")
	p.Signals = append(p.Signals, models.Signal{ID: "S1", Type: models.SignalTypeFlow})
	p.Requirements = append(p.Requirements, models.Requirement{ID: "R1", Text: "again"})

	r := ProjectValidator{}.Validate(p)
	assert.Equal(t, []string{
		"Duplicate signal ID: S1",
		"Duplicate signal ID: S1",
		"Duplicate requirement ID: R1",
	}, r.Errors)
	assert.Equal(t, []string{"Signal S1 has no range specified"}, r.Warnings)

	err := CheckProject(p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProject)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 3)
	assert.Len(t, verr.Warnings, 1)
	assert.Equal(t, 2, strings.Count(err.Error(), "Duplicate signal ID: S1"))
}

func TestProjectValidator_EmptyIDs(t *testing.T) {
	p := twoSignalProject("S1", "")
	p.Requirements = append(p.Requirements, models.Requirement{Text: "body", Priority: models.PriorityHigh})

	r := ProjectValidator{}.Validate(p)
	assert.False(t, r.Passed)
	assert.Equal(t, []string{"Signal 2 has no ID", "Requirement 2 has no ID"}, r.Errors)
}

func TestContentValidator_DuplicateSignalIDs(t *testing.T) {
	p := twoSignalProject("S1", "S2")
	p.Signals = []models.Signal{p.Signals[0], p.Signals[0], p.Signals[1]}

	r := ContentValidator{}.Validate("1. verify S1", p)
	assert.Equal(t, []string{"S1"}, r.TestedSignals)
	assert.Equal(t, []string{"S2"}, r.MissingSignals)
	assert.Equal(t, 33.3, r.CoveragePct)
}

func TestContentValidator_WholeWordMatch(t *testing.T) {
	p := twoSignalProject("A-1", "A-11")
	r := ContentValidator{}.Validate("1. Verify A-11 output", p)

	assert.False(t, r.Passed)
	assert.Equal(t, []string{"Missing test for signal A-1"}, r.Errors)
	assert.Equal(t, []string{"A-11"}, r.TestedSignals)
	assert.Equal(t, []string{"A-1"}, r.MissingSignals)
	assert.Equal(t, 50.0, r.CoveragePct)
}

func TestContentValidator_FullCoverage(t *testing.T) {
	p := twoSignalProject("S1", "S2")
	r := ContentValidator{Strict: true}.Validate(goodContent+"\n## Test 2: s2\n", p)

	assert.True(t, r.Passed)
	assert.Equal(t, 100.0, r.CoveragePct)
	assert.Empty(t, r.MissingSignals)
	assert.Equal(t, []string{"S1", "S2"}, r.TestedSignals)
	assert.Empty(t, r.Warnings)
}

func TestContentValidator_Warnings(t *testing.T) {
	p := twoSignalProject("S1", "S2")
	content := "S1 S2 value TBD and TODO; skip this test"
	r := ContentValidator{}.Validate(content, p)

	assert.True(t, r.Passed)
	assert.Equal(t, []string{
		"Document contains placeholder text: TBD",
		"Document contains placeholder text: TODO",
		"Document contains skip pattern: skip\\s+(?:this\\s+)?test",
		"Document appears to lack numbered test steps",
		"Document may be missing expected results section",
	}, r.Warnings)
}

func TestContentValidator_StrictEscalation(t *testing.T) {
	p := twoSignalProject("S1", "S2")
	content := "1. Verify S1 reading. Limit TBD."

	lenient := ContentValidator{}.Validate(content, p)
	assert.Contains(t, lenient.Warnings, "Document contains placeholder text: TBD")

	strict := ContentValidator{Strict: true}.Validate(content, p)
	assert.Equal(t, 50.0, strict.CoveragePct)
	assert.Empty(t, strict.Warnings)
	assert.NotContains(t, strict.Errors, "Document contains placeholder text: TBD")
	assert.Contains(t, strict.Errors, "STRICT: Document contains placeholder text: TBD")
	assert.Contains(t, strict.Errors, "Missing test for signal S2")
}

func TestContentValidator_StrictKeepsWarningsAtFullCoverage(t *testing.T) {
	p := twoSignalProject("S1", "S2")
	r := ContentValidator{Strict: true}.Validate("1. Verify S1 and S2. TBD", p)
	assert.True(t, r.Passed)
	assert.Equal(t, []string{"Document contains placeholder text: TBD"}, r.Warnings)
}

func TestContentValidator_NoSignals(t *testing.T) {
	r := ContentValidator{}.Validate(goodContent, &models.Project{ID: "P"})
	assert.Equal(t, 0.0, r.CoveragePct)
	assert.True(t, r.Passed)
}

func TestComplianceValidator(t *testing.T) {
	r := ComplianceValidator{}.Validate("Temperature check", models.TestTypeFAT)
	assert.True(t, r.Passed)
	assert.Equal(t, 100.0, r.CoveragePct)
	assert.Equal(t, []string{
		"Missing recommended section: procedure",
		"Missing recommended section: expected",
		"Missing recommended section: equipment",
		"Consider adding electronic signature requirements for FDA compliance",
		"Consider adding safety precautions for physical measurements",
	}, r.Warnings)

	r = ComplianceValidator{}.Validate(goodContent, models.TestTypeOQ)
	assert.Empty(t, r.Warnings)
}

func TestValidateAll(t *testing.T) {
	p := twoSignalProject("S1", "S2")
	p.Requirements = nil

	r := ValidateAll("1. Verify S1. TBD", p, models.TestTypeFAT)
	assert.False(t, r.Passed)
	assert.Equal(t, []string{"Missing test for signal S2"}, r.Errors)
	require.NotEmpty(t, r.Warnings)
	assert.Equal(t, "No requirements defined - tests may lack traceability", r.Warnings[0])
	assert.Equal(t, "Document contains placeholder text: TBD", r.Warnings[1])
	assert.Contains(t, r.Warnings, "Missing recommended section: equipment")
	assert.Equal(t, 50.0, r.CoveragePct)
	assert.Equal(t, []string{"S1"}, r.TestedSignals)
	assert.Equal(t, []string{"S2"}, r.MissingSignals)
}

func TestValidateAll_ProjectErrorsFirst(t *testing.T) {
	p := twoSignalProject("S1", "S1")
	r := ValidateAll(goodContent, p, models.TestTypeFAT)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "Duplicate signal ID: S1", r.Errors[0])
	assert.Equal(t, 100.0, r.CoveragePct)
}

func TestValidateStrict(t *testing.T) {
	p := twoSignalProject("S1", "S2")
	r := ValidateStrict("S1 only", p)
	for _, e := range r.Errors[1:] {
		assert.True(t, strings.HasPrefix(e, StrictPrefix), e)
	}
}
