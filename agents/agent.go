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
	"slices"

	"github.com/nlpodyssey/news-search-agent/modelsettings"
)

// An Agent is a single prompt-driven stage: an LLM configured with
// instructions, tools and an optional output schema.
//
// Tools can be given statically with Tools, or supplied later through a
// ToolRegistry that some other component fills once they become available.
type Agent struct {
	// The name of the agent. Names must be unique within a pipeline.
	Name string

	// Optional human-readable description of what the agent does.
	Description string

	// Instructions used as the "system prompt" when this agent is invoked.
	// Placeholders like {key} are replaced with values from the session state.
	Instructions InstructionsGetter

	// Optional model implementation. Takes precedence over ModelName.
	Model Model

	// Optional model name, resolved through the RunConfig ModelProvider.
	ModelName string

	// Configures model-specific tuning parameters (e.g. temperature, top_p).
	ModelSettings modelsettings.ModelSettings

	// Tools always available to the agent.
	Tools []FunctionTool

	// Optional cell holding tools published after the agent was built.
	ToolRegistry *ToolRegistry

	// Optional schema the final output must satisfy.
	OutputSchema OutputSchema

	// Optional session state key under which the final output is stored.
	OutputKey string

	// Callbacks invoked before every model call, in order. The first one
	// returning a response short-circuits the model call.
	BeforeModelCallbacks []BeforeModelCallback
}

// AllTools returns the static tools followed by the tools currently
// published in the registry.
func (a *Agent) AllTools() []FunctionTool {
	if a.ToolRegistry == nil {
		return a.Tools
	}
	published := a.ToolRegistry.Tools()
	if len(published) == 0 {
		return a.Tools
	}
	if len(a.Tools) == 0 {
		return published
	}
	return slices.Concat(a.Tools, published)
}
