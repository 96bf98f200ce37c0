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
)

// FunctionTool is a tool the model can call by name with JSON arguments.
type FunctionTool struct {
	// The name of the tool, as shown to the LLM.
	Name string

	// A description of the tool, as shown to the LLM.
	Description string

	// The JSON schema for the tool's parameters.
	ParamsJSONSchema map[string]any

	// A function that invokes the tool with the arguments from the LLM, as
	// a JSON string.
	//
	// A returned error is reported back to the model as the tool output, so
	// the model can react to it.
	OnInvokeTool func(ctx context.Context, arguments string) (any, error)
}

// Invoke calls the tool and renders its output as a string.
func (t FunctionTool) Invoke(ctx context.Context, arguments string) (string, error) {
	if t.OnInvokeTool == nil {
		return "", UserErrorf("tool %q has no OnInvokeTool function", t.Name)
	}
	out, err := t.OnInvokeTool(ctx, arguments)
	if err != nil {
		return "", err
	}
	return toolOutputString(out)
}

func toolOutputString(out any) (string, error) {
	switch v := out.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to JSON-marshal tool output: %w", err)
	}
	return string(b), nil
}

// ToolNames returns the names of the given tools, in order.
func ToolNames(tools []FunctionTool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}

func findTool(tools []FunctionTool, name string) (FunctionTool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return FunctionTool{}, false
}
