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

package agentstesting

import (
	"context"
	"fmt"

	"github.com/nlpodyssey/news-search-agent/agents"
	"github.com/nlpodyssey/news-search-agent/types/message"
)

func GetTextMessage(content string) message.Message {
	return message.Message{Role: message.RoleAssistant, Text: content}
}

func GetFunctionToolCall(name string, arguments string) message.Message {
	return message.Message{
		Role: message.RoleAssistant,
		ToolCalls: []message.ToolCall{{
			ID:        "call_" + name,
			Name:      name,
			Arguments: arguments,
		}},
	}
}

func emptyParams(name string) map[string]any {
	return map[string]any{
		"title":                name + "_args",
		"type":                 "object",
		"required":             []string{},
		"additionalProperties": false,
		"properties":           map[string]any{},
	}
}

func GetFunctionTool(name string, returnValue string) agents.FunctionTool {
	return agents.FunctionTool{
		Name:             name,
		ParamsJSONSchema: emptyParams(name),
		OnInvokeTool: func(context.Context, string) (any, error) {
			return returnValue, nil
		},
	}
}

func GetFunctionToolErr(name string, returnErr error) agents.FunctionTool {
	return agents.FunctionTool{
		Name:             name,
		ParamsJSONSchema: emptyParams(name),
		OnInvokeTool: func(context.Context, string) (any, error) {
			return nil, returnErr
		},
	}
}

// GetFunctionTools returns n tools named tool_0 ... tool_{n-1}.
func GetFunctionTools(n int) []agents.FunctionTool {
	tools := make([]agents.FunctionTool, n)
	for i := range tools {
		name := fmt.Sprintf("tool_%d", i)
		tools[i] = GetFunctionTool(name, name+"_result")
	}
	return tools
}
