package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// configSchema is the JSON schema every config file must satisfy.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "attest configuration",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "assertReceiveTimeout": {"type": "integer", "minimum": 0},
    "refuteReceiveTimeout": {"type": "integer", "minimum": 0},
    "parallel": {"type": "boolean"},
    "concurrency": {"type": "integer", "minimum": 1},
    "bail": {"type": "boolean"},
    "verbose": {"type": "boolean"},
    "noColor": {"type": "boolean"},
    "reporters": {
      "type": "array",
      "items": {"enum": ["console", "json", "tap", "junit"]}
    },
    "outputDir": {"type": "string"},
    "historyDb": {"type": "string"},
    "nameFilter": {"type": "string"}
  }
}`

// ValidateFile checks a config file against the schema without loading it
// into a Config. YAML files are normalized to JSON first so one schema
// covers both formats. The returned slice holds one message per violation.
func ValidateFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isYAML(path) {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("normalizing %s: %w", path, err)
		}
	}

	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}
	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return problems, nil
}
