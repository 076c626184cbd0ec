package parser

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/indusense/testgen/internal/models"
)

var tomlKeyPattern = regexp.MustCompile(`(?m)^\s*project_id\s*=`)

// TOMLParser reads project files written in TOML, with signals and
// requirements as arrays of tables.
type TOMLParser struct {
	conv *converter
}

func newTOMLParser(conv *converter) *TOMLParser {
	return &TOMLParser{conv: conv}
}

func (p *TOMLParser) Name() string {
	return "toml"
}

// CanParse accepts .toml files, or content with a top-level project_id = key.
func (p *TOMLParser) CanParse(filePath string) (bool, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".toml") {
		return true, nil
	}
	head, err := readHead(filePath)
	if err != nil {
		return false, err
	}
	return looksLikeTOML(head), nil
}

func (p *TOMLParser) Parse(filePath string) (*models.Project, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &LoadError{Source: filePath, Err: err}
	}
	return p.ParseBytes(filePath, data)
}

func (p *TOMLParser) ParseBytes(source string, data []byte) (*models.Project, error) {
	var raw Document
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return p.conv.toProject(source, &raw)
}

func looksLikeTOML(head []byte) bool {
	return !looksLikeJSON(head) && tomlKeyPattern.Match(head)
}
