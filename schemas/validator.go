package schemas

import (
	"encoding/json"
	"fmt"
)

// ManifestValidator checks a decoded manifest document against
// pipeline.schema.json (or a compatible schema supplied via
// 'baton validate --schema').
//
// It implements exactly the JSON Schema Draft 7 subset the manifest
// schema uses: "type" (object, array, string), "required", "properties",
// "items", and "enum". Keywords outside that subset are rejected rather
// than silently skipped, so a custom schema relying on, say,
// "additionalProperties" fails loudly instead of appearing to pass.
type ManifestValidator struct{}

// NewValidator creates a manifest schema validator.
func NewValidator() *ManifestValidator {
	return &ManifestValidator{}
}

// Validate walks the manifest document against the schema. The first
// violation is returned as a *ValidationError with a JSON path into the
// manifest (e.g. "$.steps[0].type").
func (v *ManifestValidator) Validate(schema map[string]interface{}, manifest interface{}) error {
	return v.walk(schema, manifest, "$")
}

func (v *ManifestValidator) walk(schema map[string]interface{}, value interface{}, path string) error {
	schemaType, ok := schema["type"].(string)
	if !ok {
		// Untyped subschemas (the parameter "default" field) accept
		// anything.
		return nil
	}

	switch schemaType {
	case "object":
		return v.walkObject(schema, value, path)
	case "array":
		return v.walkArray(schema, value, path)
	case "string":
		return v.walkString(schema, value, path)
	default:
		return fmt.Errorf("schema type %q at %s is outside the supported subset (object, array, string)", schemaType, path)
	}
}

// walkObject checks required fields, then descends into declared
// properties. Fields the schema does not declare pass through: the
// manifest loader reports those with better context than a schema can.
func (v *ManifestValidator) walkObject(schema map[string]interface{}, value interface{}, path string) error {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return NewValidationError(path, "type", fmt.Sprintf("expected a mapping, got %T", value))
	}

	if required, ok := schema["required"].([]interface{}); ok {
		for _, req := range required {
			fieldName, ok := req.(string)
			if !ok {
				continue
			}
			if _, exists := obj[fieldName]; !exists {
				return NewValidationError(path, "required", fmt.Sprintf("missing required field: %s", fieldName))
			}
		}
	}

	properties, ok := schema["properties"].(map[string]interface{})
	if !ok {
		return nil
	}
	for fieldName, fieldValue := range obj {
		propSchema, ok := properties[fieldName].(map[string]interface{})
		if !ok {
			continue
		}
		fieldPath := fmt.Sprintf("%s.%s", path, fieldName)
		if err := v.walk(propSchema, fieldValue, fieldPath); err != nil {
			return err
		}
	}

	return nil
}

// walkArray applies the "items" subschema to every element, indexing the
// path the way the manifest loader does (steps[0], parameters[1], ...).
func (v *ManifestValidator) walkArray(schema map[string]interface{}, value interface{}, path string) error {
	arr, ok := value.([]interface{})
	if !ok {
		return NewValidationError(path, "type", fmt.Sprintf("expected a list, got %T", value))
	}

	items, ok := schema["items"].(map[string]interface{})
	if !ok {
		return nil
	}
	for i, item := range arr {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if err := v.walk(items, item, itemPath); err != nil {
			return err
		}
	}

	return nil
}

// walkString checks the string type and the "enum" constraint — the
// manifest schema uses enum for parameter types (String, Integer, Float,
// Boolean) and step kinds (task, condition).
func (v *ManifestValidator) walkString(schema map[string]interface{}, value interface{}, path string) error {
	str, ok := value.(string)
	if !ok {
		return NewValidationError(path, "type", fmt.Sprintf("expected a string, got %T", value))
	}

	enum, ok := schema["enum"].([]interface{})
	if !ok {
		return nil
	}
	for _, allowed := range enum {
		if allowedStr, ok := allowed.(string); ok && allowedStr == str {
			return nil
		}
	}
	enumJSON, _ := json.Marshal(enum)
	return NewValidationError(path, "enum", fmt.Sprintf("value %q not in allowed values: %s", str, enumJSON))
}
