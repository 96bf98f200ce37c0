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
	"maps"

	"github.com/nlpodyssey/news-search-agent/types/message"
)

// CallbackContext describes the stage a callback is invoked for.
type CallbackContext struct {
	// Name of the agent about to call the model.
	AgentName string

	// Identifier of the current pipeline invocation.
	InvocationID string

	// Snapshot of the session state at the start of the stage.
	state map[string]any
}

func NewCallbackContext(agentName, invocationID string, state map[string]any) *CallbackContext {
	return &CallbackContext{
		AgentName:    agentName,
		InvocationID: invocationID,
		state:        state,
	}
}

// State returns a copy of the session state.
func (c *CallbackContext) State() map[string]any {
	return maps.Clone(c.state)
}

// BeforeModelCallback is called right before a model request is sent.
//
// Returning a non-nil response skips the model call and uses the response
// in its place. The runner then ends the pipeline for this turn with the
// response text as the output. Returning nil, nil lets the call proceed.
// The request can be modified in place.
type BeforeModelCallback func(ctx context.Context, cc *CallbackContext, req *ModelRequest) (*ModelResponse, error)

// NewTextModelResponse returns a model response carrying only text.
func NewTextModelResponse(text string) *ModelResponse {
	return &ModelResponse{
		Output: message.Message{Role: message.RoleAssistant, Text: text},
	}
}
