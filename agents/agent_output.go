// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// OutputSchema is implemented by an object that describes the JSON output
// of an agent. It captures the JSON schema of the output and validates the
// JSON produced by the LLM.
type OutputSchema interface {
	// The Name of the output type.
	Name() string

	// JSONSchema returns the JSON schema of the output.
	JSONSchema() map[string]any

	// IsObject reports whether the schema root is a JSON object. Some
	// providers only accept object roots for structured output.
	IsObject() bool

	// ValidateJSON extracts the JSON value from the model output and
	// validates it. It returns the extracted JSON text, or a
	// ModelBehaviorError.
	ValidateJSON(ctx context.Context, output string) (string, error)
}

type outputSchemaImpl[T any] struct {
	name     string
	schema   map[string]any
	compiled *gojsonschema.Schema
	isObject bool
}

// NewOutputSchema creates a new output schema for T.
// It panics in case of errors. For a safer variant, see SafeOutputSchema.
func NewOutputSchema[T any]() OutputSchema {
	result, err := SafeOutputSchema[T]()
	if err != nil {
		panic(err)
	}
	return result
}

// SafeOutputSchema creates a new output schema for T, reflected from its
// Go type. Struct fields are required and extra properties are rejected
// unless the jsonschema tags say otherwise.
func SafeOutputSchema[T any]() (OutputSchema, error) {
	var zero T
	reflector := jsonschema.Reflector{
		Anonymous:                 true,
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		DoNotReference:            true,
	}

	b, err := json.Marshal(reflector.Reflect(zero))
	if err != nil {
		return nil, fmt.Errorf("failed to JSON-marshal JSON schema: %w", err)
	}
	var schema map[string]any
	if err = json.Unmarshal(b, &schema); err != nil {
		return nil, fmt.Errorf("failed to JSON-unmarshal JSON schema: %w", err)
	}
	delete(schema, "$schema")
	delete(schema, "$id")

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, UserErrorf("failed to compile output JSON schema for %T: %w", zero, err)
	}

	return outputSchemaImpl[T]{
		name:     reflect.TypeFor[T]().String(),
		schema:   schema,
		compiled: compiled,
		isObject: schema["type"] == "object",
	}, nil
}

func (s outputSchemaImpl[T]) Name() string               { return s.name }
func (s outputSchemaImpl[T]) JSONSchema() map[string]any { return s.schema }
func (s outputSchemaImpl[T]) IsObject() bool             { return s.isObject }

func (s outputSchemaImpl[T]) ValidateJSON(ctx context.Context, output string) (string, error) {
	jsonValue, ok := ExtractJSON(output)
	if !ok {
		return "", ModelBehaviorErrorf("output for %s does not contain a JSON value", s.name)
	}
	if err := ValidateJSON(ctx, s.compiled, jsonValue); err != nil {
		return "", fmt.Errorf("output schema %s validation error: %w", s.name, err)
	}
	return jsonValue, nil
}

// ParseOutput decodes a validated JSON output into T.
func ParseOutput[T any](jsonValue string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(jsonValue), &v); err != nil {
		return v, ModelBehaviorErrorf("failed to decode output into %T: %w", v, err)
	}
	return v, nil
}
