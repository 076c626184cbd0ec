package parser

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/indusense/testgen/internal/models"
)

// YAMLParser reads project files written in YAML.
type YAMLParser struct {
	conv *converter
}

func newYAMLParser(conv *converter) *YAMLParser {
	return &YAMLParser{conv: conv}
}

func (p *YAMLParser) Name() string {
	return "yaml"
}

// CanParse accepts .yaml/.yml files, or content that is not JSON but mentions
// a project_id key.
func (p *YAMLParser) CanParse(filePath string) (bool, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return true, nil
	}
	head, err := readHead(filePath)
	if err != nil {
		return false, err
	}
	return !looksLikeJSON(head) && strings.Contains(string(head), "project_id:"), nil
}

func (p *YAMLParser) Parse(filePath string) (*models.Project, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &LoadError{Source: filePath, Err: err}
	}
	return p.ParseBytes(filePath, data)
}

func (p *YAMLParser) ParseBytes(source string, data []byte) (*models.Project, error) {
	var raw Document
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return p.conv.toProject(source, &raw)
}
