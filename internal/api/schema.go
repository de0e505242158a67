package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/*.json
var schemaFS embed.FS

const schemaBase = "https://tada.makepad.fr/schema/"

const (
	schemaList   = "list.json"
	schemaEntity = "entity.json"
	schemaCount  = "count.json"
)

// validator checks response envelopes in strict mode.
type validator struct {
	schemas map[string]*jsonschema.Schema
}

func newValidator() (*validator, error) {
	compiler := jsonschema.NewCompiler()
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}
	for _, e := range entries {
		b, err := schemaFS.ReadFile(path.Join("schema", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		if err := compiler.AddResource(schemaBase+e.Name(), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", e.Name(), err)
		}
	}

	v := &validator{schemas: make(map[string]*jsonschema.Schema)}
	for _, name := range []string{schemaList, schemaEntity, schemaCount} {
		s, err := compiler.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = s
	}
	return v, nil
}

func (v *validator) validate(name string, body []byte) error {
	s, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return &SchemaError{Schema: strings.TrimSuffix(name, ".json"), Message: err.Error()}
	}
	if err := s.Validate(doc); err != nil {
		return toSchemaError(name, err)
	}
	return nil
}

func toSchemaError(name string, err error) error {
	schema := strings.TrimSuffix(name, ".json")
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &SchemaError{Schema: schema, Message: err.Error()}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return &SchemaError{
		Schema:  schema,
		Path:    pointerToPath(leaf.InstanceLocation),
		Message: leaf.Message,
	}
}

// pointerToPath turns "/data/0/id" into "data[0].id".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")
	if ptr == "" {
		return ""
	}
	var b strings.Builder
	for i, part := range strings.Split(ptr, "/") {
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
