package validation

import (
	"fmt"
	"strings"

	"github.com/indusense/testgen/internal/models"
)

// RequiredSections must appear somewhere in a compliant document.
var RequiredSections = []string{"procedure", "expected", "equipment"}

// ComplianceValidator emits regulatory hints. It only produces warnings.
type ComplianceValidator struct{}

// Validate checks section keywords, signature language and safety notes.
// testType is accepted for per-type rules; all types share the same checks.
func (ComplianceValidator) Validate(content string, testType models.TestType) models.ValidationResult {
	var warnings []string
	lower := strings.ToLower(content)

	for _, section := range RequiredSections {
		if !strings.Contains(lower, section) {
			warnings = append(warnings, fmt.Sprintf("Missing recommended section: %s", section))
		}
	}

	if !strings.Contains(lower, "electronic signature") {
		warnings = append(warnings, "Consider adding electronic signature requirements for FDA compliance")
	}

	if containsAny(lower, "temperature", "pressure") && !containsAny(lower, "safety", "caution") {
		warnings = append(warnings, "Consider adding safety precautions for physical measurements")
	}

	return models.NewValidationResult(nil, warnings, 100, nil, nil)
}
