package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/swimlab/agecurve/schemas"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// pipelineSchema is the compiled JSON Schema for pipeline.yaml files.
var pipelineSchema *jsonschema.Schema

func init() {
	pipelineSchema = mustCompileSchema(schemas.PipelineSchemaJSON, "pipeline.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidatePipelineFile validates a pipeline.yaml file at the given path
// against the JSON schema. It also checks that the dataset the pipeline
// references actually exists, resolving a relative path against the pipeline
// file's directory the way the run command does.
func ValidatePipelineFile(pipelinePath string) (specErrs []string, datasetErrs []string, err error) {
	data, err := os.ReadFile(pipelinePath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading pipeline file: %w", err)
	}

	specErrs = ValidatePipelineBytes(data)

	// Parse into a minimal struct to resolve the dataset reference
	var spec struct {
		Dataset string `yaml:"dataset"`
	}
	if yamlErr := yaml.Unmarshal(data, &spec); yamlErr != nil {
		return specErrs, nil, nil // can't resolve the dataset, but spec errors are still useful
	}
	if spec.Dataset == "" {
		return specErrs, nil, nil // the schema already reports the missing field
	}

	datasetPath := spec.Dataset
	if !filepath.IsAbs(datasetPath) {
		datasetPath = filepath.Join(filepath.Dir(pipelinePath), datasetPath)
	}
	if _, statErr := os.Stat(datasetPath); statErr != nil {
		datasetErrs = append(datasetErrs, fmt.Sprintf("dataset %s: %v", spec.Dataset, statErr))
	}

	return specErrs, datasetErrs, nil
}

// ValidatePipelineBytes validates raw YAML bytes against the pipeline schema.
func ValidatePipelineBytes(data []byte) []string {
	return validateYAMLBytes(pipelineSchema, data)
}

func validateYAMLBytes(schema *jsonschema.Schema, data []byte) []string {
	// Parse YAML into generic any
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}

	// Convert to JSON-compatible types (yaml.v3 uses map[string]any which is fine)
	jsonCompatible := convertToJSONCompatible(yamlDoc)

	return validateAgainstSchema(schema, jsonCompatible)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// convertToJSONCompatible converts YAML-decoded values to JSON-compatible types.
// yaml.v3 decodes to map[string]any which is fine, but integers need to stay as-is.
func convertToJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = convertToJSONCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = convertToJSONCompatible(v2)
		}
		return result
	default:
		return val
	}
}
