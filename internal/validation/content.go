package validation

import (
	"fmt"

	"github.com/indusense/testgen/internal/models"
)

// StrictPrefix marks warnings promoted to errors in strict mode.
const StrictPrefix = "STRICT: "

// ContentValidator checks a generated document against its project.
type ContentValidator struct {
	// Strict promotes every warning to an error when coverage is below 100%.
	Strict bool
}

// Validate never fails; problems with the document are reported in the result.
func (v ContentValidator) Validate(content string, p *models.Project) models.ValidationResult {
	var errs, warnings []string
	var tested, missing []string
	seen := make(map[string]bool)

	for _, s := range p.Signals {
		if ContainsSignalID(content, s.ID) {
			if !seen[s.ID] {
				tested = append(tested, s.ID)
				seen[s.ID] = true
			}
			continue
		}
		errs = append(errs, fmt.Sprintf("Missing test for signal %s", s.ID))
		missing = append(missing, s.ID)
	}

	for _, m := range FindPlaceholders(content) {
		warnings = append(warnings, fmt.Sprintf("Document contains placeholder text: %s", m))
	}
	for _, pat := range FindSkipPatterns(content) {
		warnings = append(warnings, fmt.Sprintf("Document contains skip pattern: %s", pat))
	}
	if !HasNumberedSteps(content) {
		warnings = append(warnings, "Document appears to lack numbered test steps")
	}
	if !HasExpectedResults(content) {
		warnings = append(warnings, "Document may be missing expected results section")
	}

	// Coverage is tested IDs over all signal entries, duplicates included.
	coverage := models.CoveragePct(len(tested), len(p.Signals))

	if v.Strict && coverage < 100 {
		for _, w := range warnings {
			errs = append(errs, StrictPrefix+w)
		}
		warnings = nil
	}

	return models.NewValidationResult(errs, warnings, coverage, tested, missing)
}
