package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled JSON Schema document.
type Schema struct {
	compiled *jsonschema.Schema
}

// compiled schemas keyed by their canonical JSON encoding
var schemaCache sync.Map

// CompileSchema compiles doc. Equal documents share one compiled Schema, so
// callers may compile on every use.
func CompileSchema(doc map[string]any) (*Schema, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	key := string(b)
	if s, ok := schemaCache.Load(key); ok {
		return s.(*Schema), nil
	}
	c, err := jsonschema.CompileString("schema.json", key)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	s, _ := schemaCache.LoadOrStore(key, &Schema{compiled: c})
	return s.(*Schema), nil
}

// Validate decodes data and checks it against the schema. Violations are
// flattened to "<instance location>: <message>" pairs.
func (s *Schema) Validate(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	err := s.compiled.Validate(v)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	return fmt.Errorf("schema violation: %s", strings.Join(violations(ve, nil), "; "))
}

func violations(ve *jsonschema.ValidationError, out []string) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return append(out, loc+": "+ve.Message)
	}
	for _, c := range ve.Causes {
		out = violations(c, out)
	}
	return out
}

// ValidateAgainst compiles doc (cached) and validates data with it.
func ValidateAgainst(doc map[string]any, data []byte) error {
	s, err := CompileSchema(doc)
	if err != nil {
		return err
	}
	return s.Validate(data)
}
