package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownTestType is returned by ParseTestType for unsupported test types.
var ErrUnknownTestType = errors.New("unknown test type")

// TestType identifies the kind of procedure document to generate.
type TestType string

const (
	TestTypeFAT TestType = "FAT"
	TestTypeSAT TestType = "SAT"
	TestTypeIQ  TestType = "IQ"
	TestTypeOQ  TestType = "OQ"
)

var testTypeLabels = map[TestType]string{
	TestTypeFAT: "Factory Acceptance Test",
	TestTypeSAT: "Site Acceptance Test",
	TestTypeIQ:  "Installation Qualification",
	TestTypeOQ:  "Operational Qualification",
}

// AllTestTypes returns the supported test types in display order.
func AllTestTypes() []TestType {
	return []TestType{TestTypeFAT, TestTypeSAT, TestTypeIQ, TestTypeOQ}
}

// ParseTestType accepts a short name ("fat") or a full label
// ("Site Acceptance Test").
func ParseTestType(raw string) (TestType, error) {
	s := strings.TrimSpace(raw)
	if t := TestType(strings.ToUpper(s)); testTypeLabels[t] != "" {
		return t, nil
	}
	for t, label := range testTypeLabels {
		if strings.EqualFold(label, s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTestType, raw)
}

// Label returns the long form, e.g. "Factory Acceptance Test".
func (t TestType) Label() string {
	if l, ok := testTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// TestProcedure is a generated procedure document. It is never mutated after
// creation.
type TestProcedure struct {
	ProjectID       string         `json:"project_id"`
	TestType        TestType       `json:"test_type"`
	Content         string         `json:"content"`
	CreatedAt       time.Time      `json:"created_at"`
	TemplateVersion string         `json:"template_version"`
	PromptVersion   string         `json:"prompt_version"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// NewTestProcedure creates a TestProcedure stamped with createdAt.
func NewTestProcedure(projectID string, testType TestType, content, templateVersion, promptVersion string, createdAt time.Time, metadata map[string]any) *TestProcedure {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &TestProcedure{
		ProjectID:       projectID,
		TestType:        testType,
		Content:         content,
		CreatedAt:       createdAt,
		TemplateVersion: templateVersion,
		PromptVersion:   promptVersion,
		Metadata:        metadata,
	}
}
