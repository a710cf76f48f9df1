package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed apollo.config.schema.json
var configSchemaJSON []byte

const configSchemaURL = "apollo.config.schema.json"

var (
	configSchemaOnce sync.Once
	configSchema     *jsonschema.Schema
	configSchemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	configSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(configSchemaURL, bytes.NewReader(configSchemaJSON)); err != nil {
			configSchemaErr = fmt.Errorf("failed to add config schema: %w", err)
			return
		}
		configSchema, configSchemaErr = compiler.Compile(configSchemaURL)
	})
	return configSchema, configSchemaErr
}

// Validate checks the structure of a raw configuration decoded from JSON.
// Violations are reported as a *ValidationError.
func Validate(raw map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	err = schema.Validate(raw)
	if err == nil {
		return nil
	}

	result := &ValidationError{}
	if verr, ok := err.(*jsonschema.ValidationError); ok {
		collectViolations(verr, result)
	} else {
		result.Violations = append(result.Violations, Violation{Message: err.Error()})
	}
	return result
}

// collectViolations flattens a validation error tree into its leaves.
func collectViolations(err *jsonschema.ValidationError, result *ValidationError) {
	if len(err.Causes) == 0 {
		result.Violations = append(result.Violations, Violation{
			Path:    pointerToPath(err.InstanceLocation),
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectViolations(cause, result)
	}
}

func pointerToPath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	return strings.ReplaceAll(pointer, "/", ".")
}
