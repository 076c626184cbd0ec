package parser

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/indusense/testgen/internal/models"
)

// JSONParser reads the project JSON format used by the dashboard.
type JSONParser struct {
	conv   *converter
	strict bool
}

func newJSONParser(conv *converter, strict bool) *JSONParser {
	return &JSONParser{conv: conv, strict: strict}
}

func (p *JSONParser) Name() string {
	return "json"
}

// CanParse accepts .json files, or files whose first non-space byte is '{'.
func (p *JSONParser) CanParse(filePath string) (bool, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".json") {
		return true, nil
	}
	head, err := readHead(filePath)
	if err != nil {
		return false, err
	}
	return looksLikeJSON(head), nil
}

func (p *JSONParser) Parse(filePath string) (*models.Project, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &LoadError{Source: filePath, Err: err}
	}
	return p.ParseBytes(filePath, data)
}

func (p *JSONParser) ParseBytes(source string, data []byte) (*models.Project, error) {
	if p.strict {
		if err := CheckSchema(source, data); err != nil {
			return nil, err
		}
	}

	var raw Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return p.conv.toProject(source, &raw)
}

func looksLikeJSON(head []byte) bool {
	trimmed := bytes.TrimLeft(head, " \t\r\n\ufeff")
	return len(trimmed) > 0 && trimmed[0] == '{'
}
