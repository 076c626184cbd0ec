// Package validation checks project input and generated procedure content.
package validation

import (
	"fmt"

	"github.com/indusense/testgen/internal/models"
)

// ProjectValidator checks that a project is complete enough to generate from.
type ProjectValidator struct{}

// Validate runs every structural check and reports all findings at once.
// Coverage is 100 when there are no errors, else 0.
func (ProjectValidator) Validate(p *models.Project) models.ValidationResult {
	var errs, warnings []string

	if p.ID == "" {
		errs = append(errs, "Project ID is required")
	}
	if p.System == "" {
		errs = append(errs, "System name is required")
	}
	if len(p.Signals) == 0 {
		errs = append(errs, "No signals defined - cannot generate tests")
	}
	if len(p.Requirements) == 0 {
		warnings = append(warnings, "No requirements defined - tests may lack traceability")
	}

	seen := make(map[string]bool, len(p.Signals))
	for i, s := range p.Signals {
		if s.ID == "" {
			errs = append(errs, fmt.Sprintf("Signal %d has no ID", i+1))
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Sprintf("Duplicate signal ID: %s", s.ID))
		}
		seen[s.ID] = true

		if s.Range == "" {
			warnings = append(warnings, fmt.Sprintf("Signal %s has no range specified", s.ID))
		}
	}

	reqSeen := make(map[string]bool, len(p.Requirements))
	for i, r := range p.Requirements {
		if r.ID == "" {
			errs = append(errs, fmt.Sprintf("Requirement %d has no ID", i+1))
			continue
		}
		if reqSeen[r.ID] {
			errs = append(errs, fmt.Sprintf("Duplicate requirement ID: %s", r.ID))
		}
		reqSeen[r.ID] = true
	}

	coverage := 100.0
	if len(errs) > 0 {
		coverage = 0
	}
	return models.NewValidationResult(errs, warnings, coverage, nil, nil)
}

// CheckProject returns a *Error when p fails validation.
func CheckProject(p *models.Project) error {
	return ErrorFrom(ProjectValidator{}.Validate(p))
}
