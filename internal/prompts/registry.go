// Package prompts holds the versioned prompt templates used to instruct the
// generation backend.
package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/indusense/testgen/internal/models"
)

// DefaultVersion is used when a requested version is not registered.
const DefaultVersion = "v1.1"

var (
	// ErrUnknownVersion is returned by Info for unregistered versions.
	ErrUnknownVersion = errors.New("unknown prompt version")
	// ErrTemplate is returned when a template cannot be parsed or executed.
	ErrTemplate = errors.New("prompt template error")
)

// VersionInfo describes a registered template.
type VersionInfo struct {
	Version        string `json:"version"`
	Description    string `json:"description"`
	TemplateLength int    `json:"template_length"`
}

type entry struct {
	description string
	text        string
	tmpl        *template.Template
}

// Registry maps version strings to prompt templates.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  logrus.FieldLogger
}

// NewRegistry creates a registry with the built-in versions.
func NewRegistry(logger logrus.FieldLogger) *Registry {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	r := &Registry{
		entries: make(map[string]*entry),
		logger:  logger,
	}
	for _, b := range builtins {
		if err := r.Register(b.version, b.description, b.text); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds or replaces a template version.
func (r *Registry) Register(version, description, text string) error {
	if strings.TrimSpace(version) == "" {
		return fmt.Errorf("%w: empty version", ErrTemplate)
	}
	tmpl, err := template.New(version).Option("missingkey=error").Parse(text)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTemplate, version, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[version] = &entry{description: description, text: text, tmpl: tmpl}
	return nil
}

// promptFile is the on-disk format accepted by LoadFile.
type promptFile struct {
	Versions map[string]struct {
		Description string `yaml:"description"`
		Template    string `yaml:"template"`
	} `yaml:"versions"`
}

// LoadFile registers every version found in a YAML prompt file.
// Nothing is registered if any template fails to parse.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read prompt file: %w", err)
	}

	var pf promptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTemplate, path, err)
	}

	for version, v := range pf.Versions {
		if _, err := template.New(version).Parse(v.Template); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrTemplate, version, err)
		}
	}
	for version, v := range pf.Versions {
		if err := r.Register(version, v.Description, v.Template); err != nil {
			return err
		}
	}

	r.logger.WithFields(logrus.Fields{
		"file":     path,
		"versions": len(pf.Versions),
	}).Info("Loaded prompt templates")
	return nil
}

// Resolve returns the version that Prompt would use for the requested one.
func (r *Registry) Resolve(version string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.entries[version]; ok {
		return version
	}
	return DefaultVersion
}

// Prompt renders the template for version with the project's fields.
// An unknown version logs a warning and falls back to DefaultVersion.
func (r *Registry) Prompt(testType models.TestType, project *models.Project, version string) (string, error) {
	r.mu.RLock()
	e, ok := r.entries[version]
	if !ok {
		e = r.entries[DefaultVersion]
	}
	r.mu.RUnlock()

	if !ok {
		r.logger.WithFields(logrus.Fields{
			"requested": version,
			"fallback":  DefaultVersion,
		}).Warn("Unknown prompt version, using fallback")
	}
	if e == nil {
		return "", fmt.Errorf("%w: fallback %s not registered", ErrUnknownVersion, DefaultVersion)
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, newFields(testType, project)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return buf.String(), nil
}

// Versions lists the registered versions sorted by name.
func (r *Registry) Versions() []VersionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]VersionInfo, 0, len(r.entries))
	for v, e := range r.entries {
		out = append(out, VersionInfo{Version: v, Description: e.description, TemplateLength: len(e.text)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// Info returns metadata for one version.
func (r *Registry) Info(version string) (VersionInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[version]
	if !ok {
		return VersionInfo{}, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
	return VersionInfo{Version: version, Description: e.description, TemplateLength: len(e.text)}, nil
}

// Template returns the raw template text of a version.
func (r *Registry) Template(version string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[version]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
	return e.text, nil
}
