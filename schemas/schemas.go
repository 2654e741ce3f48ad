// Package schemas carries the embedded JSON Schema documents the pipeline
// tooling validates user files against.
package schemas

import _ "embed"

// PipelineSchemaJSON is the JSON Schema for pipeline.yaml files.
//
//go:embed pipeline.schema.json
var PipelineSchemaJSON string
