package models

import (
	"fmt"
	"math"
)

// ValidationResult is the outcome of a validation pass.
// Passed is true iff Errors is empty.
type ValidationResult struct {
	Passed         bool     `json:"passed" msgpack:"passed"`
	Errors         []string `json:"errors" msgpack:"errors"`
	Warnings       []string `json:"warnings" msgpack:"warnings"`
	CoveragePct    float64  `json:"coverage_pct" msgpack:"coverage_pct"`
	TestedSignals  []string `json:"tested_signals" msgpack:"tested_signals"`
	MissingSignals []string `json:"missing_signals" msgpack:"missing_signals"`
}

// NewValidationResult builds a result, deriving Passed from errs and
// normalizing nil slices to empty ones.
func NewValidationResult(errs, warnings []string, coverage float64, tested, missing []string) ValidationResult {
	return ValidationResult{
		Passed:         len(errs) == 0,
		Errors:         nonNil(errs),
		Warnings:       nonNil(warnings),
		CoveragePct:    coverage,
		TestedSignals:  nonNil(tested),
		MissingSignals: nonNil(missing),
	}
}

// Summary renders a short human-readable report.
func (r ValidationResult) Summary() string {
	status := "PASSED"
	if !r.Passed {
		status = "FAILED"
	}
	return fmt.Sprintf("Validation Report\n%s\nCoverage: %.1f%%\nErrors: %d\nWarnings: %d\n",
		status, r.CoveragePct, len(r.Errors), len(r.Warnings))
}

// CoveragePct returns tested/total*100 rounded to one decimal, or 0 when
// total is zero.
func CoveragePct(tested, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(tested)/float64(total)*1000) / 10
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
