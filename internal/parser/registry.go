package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/indusense/testgen/internal/models"
)

const headSize = 4096

// Registry holds all available parsers and provides auto-detection.
type Registry struct {
	parsers []Parser
}

// NewRegistry creates a registry with the JSON, YAML and TOML parsers.
func NewRegistry(opts Options, logger logrus.FieldLogger) (*Registry, error) {
	conv := &converter{logger: logger}
	if opts.SignalTypeFallback != "" {
		t, err := models.ParseSignalType(opts.SignalTypeFallback)
		if err != nil {
			return nil, fmt.Errorf("signal type fallback: %w", err)
		}
		conv.fallback = t
	}

	return &Registry{
		parsers: []Parser{
			newJSONParser(conv, opts.StrictSchema),
			newYAMLParser(conv),
			newTOMLParser(conv),
		},
	}, nil
}

// Register adds a new parser to the registry.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// FindParser detects the correct parser for a file.
func (r *Registry) FindParser(filePath string) (Parser, error) {
	for _, p := range r.parsers {
		can, err := p.CanParse(filePath)
		if err != nil {
			continue
		}
		if can {
			return p, nil
		}
	}
	return nil, &LoadError{Source: filePath, Err: fmt.Errorf("no suitable parser found")}
}

// GetParserByName returns a parser by its name.
func (r *Registry) GetParserByName(name string) (Parser, error) {
	name = strings.ToLower(name)
	for _, p := range r.parsers {
		if strings.ToLower(p.Name()) == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("parser not found: %s", name)
}

// Load detects the format of a file and decodes it.
func (r *Registry) Load(filePath string) (*models.Project, error) {
	p, err := r.FindParser(filePath)
	if err != nil {
		return nil, err
	}
	return p.Parse(filePath)
}

// LoadBytes decodes an uploaded document. The format comes from the name's
// extension, or from the content when the extension is unknown.
func (r *Registry) LoadBytes(name string, data []byte) (*models.Project, error) {
	format := DetectFormat(name, data)
	p, err := r.GetParserByName(format)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	return p.ParseBytes(name, data)
}

// DetectFormat returns "json", "yaml" or "toml" for a document.
func DetectFormat(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	}
	if looksLikeJSON(data) {
		return "json"
	}
	if looksLikeTOML(data) {
		return "toml"
	}
	return "yaml"
}

func readHead(filePath string) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, headSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}
