// Package validation checks graph-adjacent documents against JSON
// Schema Draft 2020-12: argument bindings against declared parameter
// schemas, and stored process definitions against the storage format.
// Graph structure itself is checked by Flatten; this package covers
// what structure checks cannot, the shape of the values flowing in.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/randalmurphal/procgraph/pkg/procgraph"
)

// processSchemaJSON is the JSON Schema for stored process definitions.
// Embedded as a constant to avoid filesystem dependencies.
const processSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://procgraph.dev/schemas/process.json",
  "type": "object",
  "required": ["id", "process_graph"],
  "properties": {
    "id": {
      "type": "string",
      "minLength": 1,
      "pattern": "^[A-Za-z0-9_]+$"
    },
    "summary": { "type": "string" },
    "description": { "type": "string" },
    "parameters": {
      "type": "array",
      "items": { "$ref": "#/$defs/parameter" }
    },
    "process_graph": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": { "$ref": "#/$defs/node" }
    }
  },
  "$defs": {
    "parameter": {
      "type": "object",
      "required": ["name", "schema"],
      "properties": {
        "name": {
          "type": "string",
          "minLength": 1
        },
        "description": { "type": "string" },
        "schema": { "type": "object" },
        "optional": { "type": "boolean" },
        "default": {}
      }
    },
    "node": {
      "type": "object",
      "required": ["process_id", "arguments"],
      "properties": {
        "process_id": {
          "type": "string",
          "minLength": 1
        },
        "namespace": { "type": "string" },
        "arguments": { "type": "object" },
        "result": { "type": "boolean" }
      },
      "additionalProperties": false
    }
  }
}`

var (
	processSchema     *jsonschema.Schema
	processSchemaOnce sync.Once
	processSchemaErr  error
)

// getProcessSchema compiles the embedded process schema on first use.
func getProcessSchema() (*jsonschema.Schema, error) {
	processSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.AssertFormat()

		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(processSchemaJSON))
		if err != nil {
			processSchemaErr = fmt.Errorf("unmarshal process schema: %w", err)
			return
		}
		if err := c.AddResource("https://procgraph.dev/schemas/process.json", doc); err != nil {
			processSchemaErr = fmt.Errorf("add process schema resource: %w", err)
			return
		}
		processSchema, processSchemaErr = c.Compile("https://procgraph.dev/schemas/process.json")
	})
	return processSchema, processSchemaErr
}

// SchemaError reports a document rejected by a JSON schema. Subject is
// the parameter name for bindings or the process id for definitions.
type SchemaError struct {
	// Subject names what was validated.
	Subject string
	// Violations lists the schema violations with instance locations.
	Violations []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("schema validation of %q: %s", e.Subject, e.Violations[0])
	}
	return fmt.Sprintf("schema validation of %q: %d violations", e.Subject, len(e.Violations))
}

// Validator validates bindings and process definitions.
// It caches compiled parameter schemas and is safe for concurrent use.
type Validator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// New creates a Validator with an empty schema cache.
func New() *Validator {
	return &Validator{cache: make(map[string]*jsonschema.Schema)}
}

// ValidateBinding checks a value against a parameter's declared schema.
// Parameters without a schema accept any value.
func (v *Validator) ValidateBinding(param *procgraph.Parameter, value any) error {
	if param == nil {
		return fmt.Errorf("validation: parameter is nil")
	}
	schema := param.Schema()
	if len(schema) == 0 {
		return nil
	}

	compiled, err := v.getOrCompile(schema)
	if err != nil {
		return fmt.Errorf("validation: parameter %q has an invalid schema: %w", param.Name(), err)
	}

	doc, err := toJSONValue(value)
	if err != nil {
		return fmt.Errorf("validation: serialize binding for %q: %w", param.Name(), err)
	}

	if err := compiled.Validate(doc); err != nil {
		return toSchemaError(param.Name(), err)
	}
	return nil
}

// ValidateBindings checks every binding that has a declared parameter.
// Bindings without a matching declaration pass; SubstituteParameters
// reports undeclared names.
func (v *Validator) ValidateBindings(params []*procgraph.Parameter, bindings map[string]any) error {
	for _, param := range params {
		value, ok := bindings[param.Name()]
		if !ok {
			continue
		}
		if err := v.ValidateBinding(param, value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateProcess checks a process definition against the storage
// format schema. The process is marshaled the same way SaveProcess
// sends it, so flattening errors surface here too.
func (v *Validator) ValidateProcess(proc *procgraph.Process) error {
	if proc == nil {
		return fmt.Errorf("validation: process is nil")
	}

	schema, err := getProcessSchema()
	if err != nil {
		return err
	}

	doc, err := toJSONValue(proc)
	if err != nil {
		return fmt.Errorf("validation: serialize process %q: %w", proc.ID, err)
	}

	if err := schema.Validate(doc); err != nil {
		return toSchemaError(proc.ID, err)
	}
	return nil
}

// getOrCompile returns a cached compiled schema or compiles and caches a new one.
func (v *Validator) getOrCompile(schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	key := string(raw)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	// Double-check after acquiring write lock.
	if cached, ok := v.cache[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Each schema gets a unique URL to avoid collisions in the compiler.
	url := fmt.Sprintf("procgraph://parameter-schema/%d", len(v.cache))

	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so
// that numeric values become json.Number (required by the jsonschema
// library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toSchemaError converts a jsonschema.ValidationError into a
// *SchemaError with leaf violations.
func toSchemaError(subject string, err error) error {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &SchemaError{Subject: subject, Violations: []string{err.Error()}}
	}
	return &SchemaError{Subject: subject, Violations: collectViolations(verr)}
}

// collectViolations walks a ValidationError tree and collects leaf
// error messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
