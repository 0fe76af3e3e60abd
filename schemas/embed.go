// Package schemas provides access to embedded JSON schemas.
package schemas

import (
	_ "embed"
)

// Embed the pipeline manifest JSON Schema into the binary for validation
// and tooling. The schema defines the structure of manifest files and
// enables IDE autocompletion, early validation, and schema export.
//
//go:embed pipeline.schema.json
var pipelineSchema []byte

// GetPipelineSchema returns the embedded pipeline JSON Schema as raw bytes.
// This schema can be used for validation, IDE integration, or schema export.
func GetPipelineSchema() []byte {
	return pipelineSchema
}

// GetPipelineSchemaString returns the embedded pipeline JSON Schema as a string.
// This is a convenience method for use cases that need the schema as a string.
func GetPipelineSchemaString() string {
	return string(pipelineSchema)
}
