// Package parser loads project descriptions from JSON and YAML files.
package parser

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/indusense/testgen/internal/models"
)

// ErrProjectLoad matches every *LoadError.
var ErrProjectLoad = errors.New("project load failed")

// LoadError reports a malformed project source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrProjectLoad, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is matches ErrProjectLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrProjectLoad
}

// Parser decodes one project file format.
type Parser interface {
	// Name returns the unique name of the parser.
	Name() string
	// CanParse returns true if this parser can handle the given file.
	CanParse(filePath string) (bool, error)
	// Parse reads and decodes a project file.
	Parse(filePath string) (*models.Project, error)
	// ParseBytes decodes an in-memory document. source names it in errors.
	ParseBytes(source string, data []byte) (*models.Project, error)
}

// Options control how loosely documents are interpreted.
type Options struct {
	// SignalTypeFallback replaces unrecognized signal types when set.
	// Empty rejects them.
	SignalTypeFallback string
	// StrictSchema checks JSON documents against ProjectSchema before
	// decoding, rejecting unknown keys.
	StrictSchema bool
}

// Document mirrors the file layout before enum values are checked. It is
// also the source of the published project schema.
type Document struct {
	ProjectID    string                `json:"project_id" yaml:"project_id" toml:"project_id" jsonschema:"required,minLength=1,description=Unique project identifier"`
	System       string                `json:"system" yaml:"system" toml:"system" jsonschema:"required,description=System under test"`
	Environment  string                `json:"environment,omitempty" yaml:"environment" toml:"environment" jsonschema:"description=Installation environment"`
	Signals      []DocumentSignal      `json:"signals" yaml:"signals" toml:"signals" jsonschema:"required"`
	Requirements []DocumentRequirement `json:"requirements,omitempty" yaml:"requirements" toml:"requirements"`
	Metadata     map[string]any        `json:"metadata,omitempty" yaml:"metadata" toml:"metadata"`
}

// DocumentSignal is one signal entry of a project file.
type DocumentSignal struct {
	ID          string `json:"id" yaml:"id" toml:"id" jsonschema:"required,minLength=1"`
	Type        string `json:"type" yaml:"type" toml:"type" jsonschema:"required,description=Signal type name such as TEMPERATURE or Dissolved Oxygen"`
	Range       string `json:"range" yaml:"range" toml:"range" jsonschema:"required"`
	Unit        string `json:"unit,omitempty" yaml:"unit" toml:"unit"`
	Accuracy    string `json:"accuracy,omitempty" yaml:"accuracy" toml:"accuracy"`
	Description string `json:"description,omitempty" yaml:"description" toml:"description"`
}

// DocumentRequirement is one requirement entry of a project file.
type DocumentRequirement struct {
	ID       string `json:"id" yaml:"id" toml:"id" jsonschema:"required,minLength=1"`
	Text     string `json:"text" yaml:"text" toml:"text" jsonschema:"required"`
	Priority string `json:"priority,omitempty" yaml:"priority" toml:"priority" jsonschema:"description=LOW MEDIUM HIGH or CRITICAL; defaults to MEDIUM"`
	Category string `json:"category,omitempty" yaml:"category" toml:"category"`
}

// converter turns raw documents into domain projects.
type converter struct {
	fallback models.SignalType
	logger   logrus.FieldLogger
}

func (c *converter) toProject(source string, raw *Document) (*models.Project, error) {
	p := &models.Project{
		ID:           raw.ProjectID,
		System:       raw.System,
		Environment:  raw.Environment,
		Signals:      make([]models.Signal, 0, len(raw.Signals)),
		Requirements: make([]models.Requirement, 0, len(raw.Requirements)),
		Metadata:     raw.Metadata,
	}
	if p.Metadata == nil {
		p.Metadata = make(map[string]any)
	}

	for i, rs := range raw.Signals {
		typ, err := models.ParseSignalType(rs.Type)
		if err != nil {
			if c.fallback == "" {
				return nil, &LoadError{Source: source, Err: fmt.Errorf("signal %d (%s): %w", i, rs.ID, err)}
			}
			c.logger.WithFields(logrus.Fields{
				"source":    source,
				"signal_id": rs.ID,
				"type":      rs.Type,
				"fallback":  c.fallback,
			}).Warn("Unrecognized signal type, using fallback")
			typ = c.fallback
		}

		s, err := models.NewSignal(rs.ID, typ, rs.Range)
		if err != nil {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("signal %d: %w", i, err)}
		}
		p.Signals = append(p.Signals, s.WithDetails(rs.Unit, rs.Accuracy, rs.Description))
	}

	for i, rr := range raw.Requirements {
		r, err := models.NewRequirement(rr.ID, rr.Text, rr.Priority)
		if err != nil {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("requirement %d (%s): %w", i, rr.ID, err)}
		}
		r.Category = rr.Category
		p.Requirements = append(p.Requirements, r)
	}

	return p, nil
}
