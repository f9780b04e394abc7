package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator compiles JSON schemas once and validates decoded payloads.
type SchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewSchemaValidator builds a validator backed by jsonschema v5.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks payload against schema. The payload is round-tripped through
// encoding/json so YAML and Go values validate the same way as wire JSON.
func (v *SchemaValidator) Validate(name string, schema map[string]any, payload any) error {
	if len(schema) == 0 {
		return nil
	}
	compiled, err := v.schemaFor(name, schema)
	if err != nil {
		return err
	}
	normalized, err := normalizeJSON(payload)
	if err != nil {
		return fmt.Errorf("dashboard: normalize %s payload: %w", name, err)
	}
	if err := compiled.Validate(normalized); err != nil {
		return fmt.Errorf("dashboard: %s failed validation: %w", name, err)
	}
	return nil
}

func normalizeJSON(payload any) (any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (v *SchemaValidator) schemaFor(name string, schema map[string]any) (*jsonschema.Schema, error) {
	v.mu.RLock()
	compiled, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", name, err)
	}
	compiled, err = compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}

var defaultValidator = NewSchemaValidator()

var bindingSchema = map[string]any{
	"type":     "object",
	"required": []string{"table", "column"},
	"properties": map[string]any{
		"table":  map[string]any{"type": "string", "minLength": 1},
		"column": map[string]any{"type": "string", "minLength": 1},
	},
}

var configSchema = map[string]any{
	"type":     "object",
	"required": []string{"widgets", "dimensions"},
	"properties": map[string]any{
		"version":   map[string]any{"type": "string"},
		"page_name": map[string]any{"type": "string"},
		"widgets": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"id"},
				"properties": map[string]any{
					"id":       map[string]any{"type": "string", "minLength": 1},
					"title":    map[string]any{"type": "string"},
					"type":     map[string]any{"type": "string"},
					"bindings": map[string]any{"type": "array", "items": bindingSchema},
					"policy":   map[string]any{"enum": []string{string(PolicyLiteral), string(PolicyAlwaysRandom)}},
				},
			},
		},
		"default_order": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"dimensions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []string{"slot", "options", "bindings"},
				"properties": map[string]any{
					"slot":     map[string]any{"type": "string", "minLength": 1},
					"options":  map[string]any{"type": "array", "minItems": 1, "items": map[string]any{"type": "string"}},
					"bindings": map[string]any{"type": "array", "minItems": 1, "items": bindingSchema},
					"filter":   bindingSchema,
				},
			},
		},
		"normalizer": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"aliases":   map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
				"ambiguous": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"fallback":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
		},
		"random_target":   bindingSchema,
		"quiet_period_ms": map[string]any{"type": "integer", "minimum": 0},
		"fanout_limit":    map[string]any{"type": "integer", "minimum": 0},
		"layout_api_url":  map[string]any{"type": "string"},
	},
}

// selectionSchema only checks the envelope; field-level problems are handled
// by the interpreter, which drops malformed selections instead of failing.
var selectionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"dataPoints": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "object"},
		},
	},
}

// DecodeSelectionEvent parses a raw dataSelected payload.
func DecodeSelectionEvent(data []byte) (SelectionEvent, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return SelectionEvent{}, fmt.Errorf("dashboard: decode selection: %w", err)
	}
	if err := defaultValidator.Validate("selection", selectionSchema, raw); err != nil {
		return SelectionEvent{}, err
	}
	var event SelectionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return SelectionEvent{}, fmt.Errorf("dashboard: decode selection: %w", err)
	}
	return event, nil
}
