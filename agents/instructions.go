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
	"regexp"
)

// InstructionsGetter interface is implemented by objects that can provide instructions to an Agent.
type InstructionsGetter interface {
	GetInstructions(context.Context, *Agent) (string, error)
}

// InstructionsStr satisfies InstructionsGetter providing a simple constant string value.
type InstructionsStr string

// GetInstructions returns the string value and always nil error.
func (s InstructionsStr) GetInstructions(context.Context, *Agent) (string, error) {
	return s.String(), nil
}

func (s InstructionsStr) String() string {
	return string(s)
}

// InstructionsFunc lets you implement a function that dynamically generates instructions for an Agent.
type InstructionsFunc func(context.Context, *Agent) (string, error)

// GetInstructions calls the function.
func (fn InstructionsFunc) GetInstructions(ctx context.Context, a *Agent) (string, error) {
	return fn(ctx, a)
}

// A placeholder must start with an identifier right after the brace, so JSON
// examples such as {"queries": [...]} are left alone.
var stateKeyPlaceholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(\?)?\}`)

// InjectSessionState replaces {key} placeholders with values from state.
//
// String values are inserted verbatim, anything else as JSON. A {key?}
// placeholder whose key is missing becomes an empty string; a missing {key}
// is left untouched.
func InjectSessionState(instructions string, state map[string]any) string {
	return stateKeyPlaceholder.ReplaceAllStringFunc(instructions, func(match string) string {
		groups := stateKeyPlaceholder.FindStringSubmatch(match)
		key, optional := groups[1], groups[2] == "?"

		value, ok := state[key]
		switch {
		case !ok && optional:
			return ""
		case !ok:
			return match
		}
		return stateValueString(value)
	})
}

func stateValueString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(b)
}
