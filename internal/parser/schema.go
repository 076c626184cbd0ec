package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaID is the $id of the published project schema.
const SchemaID = "https://indusense.dev/schemas/testgen/project.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// ProjectSchema reflects the JSON schema of a project file from Document.
func ProjectSchema() *invopop.Schema {
	r := &invopop.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&Document{})
	s.ID = invopop.ID(SchemaID)
	s.Title = "Test procedure project"
	s.Description = "System, signals and requirements a test procedure is generated for."
	return s
}

// ProjectSchemaJSON returns ProjectSchema as indented JSON.
func ProjectSchemaJSON() ([]byte, error) {
	return json.MarshalIndent(ProjectSchema(), "", "  ")
}

func compileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		data, err := ProjectSchemaJSON()
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(SchemaID, bytes.NewReader(data)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = c.Compile(SchemaID)
	})
	return compiledSchema, schemaErr
}

// CheckSchema validates a JSON document against the project schema.
func CheckSchema(source string, data []byte) error {
	sch, err := compileSchema()
	if err != nil {
		return &LoadError{Source: source, Err: fmt.Errorf("compiling project schema: %w", err)}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return &LoadError{Source: source, Err: err}
	}
	if err := sch.Validate(v); err != nil {
		return &LoadError{Source: source, Err: err}
	}
	return nil
}
