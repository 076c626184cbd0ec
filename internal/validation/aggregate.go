package validation

import "github.com/indusense/testgen/internal/models"

// ValidateAll runs the project, content and compliance validators in that
// order and concatenates their findings. Content validation is never strict
// here. Coverage fields come from the content validator.
func ValidateAll(content string, p *models.Project, testType models.TestType) models.ValidationResult {
	project := ProjectValidator{}.Validate(p)
	body := ContentValidator{Strict: false}.Validate(content, p)
	compliance := ComplianceValidator{}.Validate(content, testType)

	var errs, warnings []string
	for _, r := range []models.ValidationResult{project, body, compliance} {
		errs = append(errs, r.Errors...)
		warnings = append(warnings, r.Warnings...)
	}

	return models.NewValidationResult(errs, warnings, body.CoveragePct, body.TestedSignals, body.MissingSignals)
}

// ValidateStrict runs the content validator with strict escalation.
func ValidateStrict(content string, p *models.Project) models.ValidationResult {
	return ContentValidator{Strict: true}.Validate(content, p)
}
