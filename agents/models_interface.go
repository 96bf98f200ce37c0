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

	"github.com/nlpodyssey/news-search-agent/modelsettings"
	"github.com/nlpodyssey/news-search-agent/types/message"
	"github.com/nlpodyssey/news-search-agent/usage"
)

// Model is the base interface for calling an LLM.
type Model interface {
	// GetResponse returns the full model response from the model.
	GetResponse(context.Context, ModelRequest) (*ModelResponse, error)
}

type ModelRequest struct {
	// The system instructions to use.
	SystemInstructions string

	// The conversation the model responds to, oldest first.
	Input []message.Message

	// The model settings to use.
	ModelSettings modelsettings.ModelSettings

	// The tools available to the model.
	Tools []FunctionTool

	// Optional output schema to use.
	OutputSchema OutputSchema
}

type ModelResponse struct {
	// The assistant message produced by the model. It can carry text, tool
	// calls, or both.
	Output message.Message

	// The usage information for the response.
	Usage *usage.Usage
}

// ModelProvider is the base interface for a model provider.
// It is responsible for looking up Models by name.
type ModelProvider interface {
	// GetModel returns a model by name.
	GetModel(modelName string) (Model, error)
}
