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
	"github.com/nlpodyssey/news-search-agent/modelsettings"
)

// New creates a new Agent with the given name.
//
// The returned Agent can be further configured using the builder methods.
func New(name string) *Agent {
	return &Agent{Name: name}
}

// WithDescription sets the agent description.
func (a *Agent) WithDescription(desc string) *Agent {
	a.Description = desc
	return a
}

// WithInstructions sets the Agent instructions.
func (a *Agent) WithInstructions(instr string) *Agent {
	a.Instructions = InstructionsStr(instr)
	return a
}

// WithInstructionsFunc sets dynamic instructions using an InstructionsFunc.
func (a *Agent) WithInstructionsFunc(fn InstructionsFunc) *Agent {
	a.Instructions = fn
	return a
}

// WithModel sets the model to use by name.
func (a *Agent) WithModel(name string) *Agent {
	a.ModelName = name
	return a
}

// WithModelInstance sets the model using a Model implementation.
func (a *Agent) WithModelInstance(m Model) *Agent {
	a.Model = m
	return a
}

// WithModelSettings sets model-specific settings.
func (a *Agent) WithModelSettings(settings modelsettings.ModelSettings) *Agent {
	a.ModelSettings = settings
	return a
}

// WithTools sets the list of static tools available to the agent.
func (a *Agent) WithTools(tools ...FunctionTool) *Agent {
	a.Tools = tools
	return a
}

// WithToolRegistry sets the registry the agent reads late-bound tools from.
func (a *Agent) WithToolRegistry(r *ToolRegistry) *Agent {
	a.ToolRegistry = r
	return a
}

// WithOutputSchema sets the schema the final output must satisfy.
func (a *Agent) WithOutputSchema(schema OutputSchema) *Agent {
	a.OutputSchema = schema
	return a
}

// WithOutputKey sets the session state key for the final output.
func (a *Agent) WithOutputKey(key string) *Agent {
	a.OutputKey = key
	return a
}

// WithBeforeModelCallback appends a callback invoked before every model call.
func (a *Agent) WithBeforeModelCallback(cb BeforeModelCallback) *Agent {
	a.BeforeModelCallbacks = append(a.BeforeModelCallbacks, cb)
	return a
}
