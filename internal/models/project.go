package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPriority is returned for priorities outside LOW/MEDIUM/HIGH/CRITICAL.
	ErrInvalidPriority = errors.New("invalid priority")
	// ErrEmptyRequirementID is returned when a requirement is constructed without an ID.
	ErrEmptyRequirementID = errors.New("requirement ID cannot be empty")
)

// Priority ranks a requirement.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// ParsePriority validates a priority string. An empty value yields PriorityMedium.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(raw))); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPriority, raw)
	}
}

// Requirement is a traceable system requirement that tests must demonstrate.
type Requirement struct {
	ID       string   `json:"id" yaml:"id"`
	Text     string   `json:"text" yaml:"text"`
	Priority Priority `json:"priority" yaml:"priority"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
}

// NewRequirement creates a Requirement, rejecting an empty ID. An empty
// priority defaults to MEDIUM.
func NewRequirement(id, text, priority string) (Requirement, error) {
	if id == "" {
		return Requirement{}, ErrEmptyRequirementID
	}
	p, err := ParsePriority(priority)
	if err != nil {
		return Requirement{}, err
	}
	return Requirement{ID: id, Text: text, Priority: p}, nil
}

// Project describes one test campaign. It is assembled once per generation
// request and treated as read-only by the pipeline.
type Project struct {
	ID           string         `json:"project_id" yaml:"project_id"`
	System       string         `json:"system" yaml:"system"`
	Signals      []Signal       `json:"signals" yaml:"signals"`
	Requirements []Requirement  `json:"requirements" yaml:"requirements"`
	Environment  string         `json:"environment" yaml:"environment"`
	Metadata     map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SignalCount returns the number of signals.
func (p *Project) SignalCount() int {
	return len(p.Signals)
}

// RequirementCount returns the number of requirements.
func (p *Project) RequirementCount() int {
	return len(p.Requirements)
}

// SignalsByType returns the signals of the given type, in project order.
func (p *Project) SignalsByType(t SignalType) []Signal {
	var out []Signal
	for _, s := range p.Signals {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// SignalIDs returns all signal IDs in project order.
func (p *Project) SignalIDs() []string {
	ids := make([]string, 0, len(p.Signals))
	for _, s := range p.Signals {
		ids = append(ids, s.ID)
	}
	return ids
}

// SampleProject returns the pilot project used for demos and smoke tests.
func SampleProject() *Project {
	return &Project{
		ID:          "P-2026-PILOT",
		System:      "Indigo500 Transmitter",
		Environment: "Cleanroom Class 5",
		Signals: []Signal{
			{ID: "SIG-TMP-01", Type: SignalTypeTemperature, Range: "-40 to 80 C", Unit: "C", Accuracy: "0.1 C"},
			{ID: "SIG-HUM-01", Type: SignalTypeHumidity, Range: "0 to 100 %RH", Unit: "%", Accuracy: "1.0 %"},
		},
		Requirements: []Requirement{
			{ID: "REQ-ACC-01", Text: "Sensor must stabilize within 2 mins", Priority: PriorityHigh},
			{ID: "REQ-SAF-01", Text: "High alarm trigger at 75 C", Priority: PriorityCritical},
		},
		Metadata: map[string]any{},
	}
}
