package prompts

import (
	"fmt"
	"strings"

	"github.com/indusense/testgen/internal/models"
)

// Fields are the values available to templates as {{.Name}}.
type Fields struct {
	TestType             string
	ProjectID            string
	SystemName           string
	Environment          string
	SignalCount          int
	RequirementCount     int
	ProjectSummary       string
	SignalsList          string
	SignalsDetailed      string
	RequirementsList     string
	RequirementsDetailed string
}

func newFields(testType models.TestType, p *models.Project) Fields {
	return Fields{
		TestType:             testType.Label(),
		ProjectID:            p.ID,
		SystemName:           p.System,
		Environment:          p.Environment,
		SignalCount:          p.SignalCount(),
		RequirementCount:     p.RequirementCount(),
		ProjectSummary:       fmt.Sprintf("%s with %d signals", p.System, p.SignalCount()),
		SignalsList:          signalsList(p.Signals),
		SignalsDetailed:      signalsDetailed(p.Signals),
		RequirementsList:     requirementsList(p.Requirements),
		RequirementsDetailed: requirementsDetailed(p.Requirements),
	}
}

func signalsList(signals []models.Signal) string {
	lines := make([]string, 0, len(signals))
	for _, s := range signals {
		lines = append(lines, fmt.Sprintf("- %s: %s (%s)", s.ID, s.Type, s.Range))
	}
	return strings.Join(lines, "\n")
}

func signalsDetailed(signals []models.Signal) string {
	blocks := make([]string, 0, len(signals))
	for _, s := range signals {
		blocks = append(blocks, fmt.Sprintf(
			"Signal ID: %s\n  Type: %s\n  Range: %s\n  Unit: %s\n  Accuracy: %s\n  Description: %s",
			s.ID, s.Type, s.Range, orNA(s.Unit), orNA(s.Accuracy), orNA(s.Description)))
	}
	return strings.Join(blocks, "\n\n")
}

func requirementsList(reqs []models.Requirement) string {
	lines := make([]string, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, fmt.Sprintf("- %s: %s", r.ID, r.Text))
	}
	return strings.Join(lines, "\n")
}

func requirementsDetailed(reqs []models.Requirement) string {
	lines := make([]string, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, fmt.Sprintf("%s [%s]: %s", r.ID, r.Priority, r.Text))
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
