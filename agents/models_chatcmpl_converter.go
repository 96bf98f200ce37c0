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
	"fmt"

	"github.com/nlpodyssey/news-search-agent/modelsettings"
	"github.com/nlpodyssey/news-search-agent/types/message"
	"github.com/nlpodyssey/news-search-agent/util/transforms"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared/constant"
)

type chatCmplConverter struct{}

func ChatCmplConverter() chatCmplConverter { return chatCmplConverter{} }

func (chatCmplConverter) ConvertToolChoice(toolChoice modelsettings.ToolChoice) openai.ChatCompletionToolChoiceOptionUnionParam {
	switch toolChoice {
	case modelsettings.ToolChoiceDefault:
		return openai.ChatCompletionToolChoiceOptionUnionParam{}
	case modelsettings.ToolChoiceAuto, modelsettings.ToolChoiceRequired, modelsettings.ToolChoiceNone:
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: param.NewOpt(string(toolChoice)),
		}
	default:
		// Any other value names a specific function.
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: string(toolChoice),
				},
				Type: constant.ValueOf[constant.Function](),
			},
		}
	}
}

// ConvertResponseFormat returns a JSON schema response format for object
// schemas. Chat Completions only accepts object roots, so other schemas
// are left to the instructions and validated afterwards.
func (chatCmplConverter) ConvertResponseFormat(
	outputSchema OutputSchema,
) (openai.ChatCompletionNewParamsResponseFormatUnion, bool) {
	if outputSchema == nil || !outputSchema.IsObject() {
		return openai.ChatCompletionNewParamsResponseFormatUnion{}, false
	}

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   transforms.TransformStringFunctionStyle(outputSchema.Name()),
				Strict: param.NewOpt(true),
				Schema: outputSchema.JSONSchema(),
			},
			Type: constant.ValueOf[constant.JSONSchema](),
		},
	}, true
}

func (chatCmplConverter) MessageFromCompletion(m openai.ChatCompletionMessage) message.Message {
	out := message.Message{
		Role: message.RoleAssistant,
		Text: m.Content,
	}
	if out.Text == "" && m.Refusal != "" {
		out.Text = m.Refusal
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, message.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

func (conv chatCmplConverter) ItemsToMessages(items []message.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(items))
	for i, item := range items {
		switch item.Role {
		case message.RoleUser:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: param.NewOpt(item.Text),
					},
					Role: constant.ValueOf[constant.User](),
				},
			})
		case message.RoleAssistant:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfAssistant: conv.assistantMessage(item),
			})
		case message.RoleTool:
			if item.ToolResult == nil {
				return nil, UserErrorf("tool message %d has no result", i)
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: param.NewOpt(item.ToolResult.Output),
					},
					ToolCallID: item.ToolResult.CallID,
					Role:       constant.ValueOf[constant.Tool](),
				},
			})
		default:
			return nil, UserErrorf("unexpected message role %q", item.Role)
		}
	}
	return result, nil
}

func (chatCmplConverter) assistantMessage(item message.Message) *openai.ChatCompletionAssistantMessageParam {
	asst := &openai.ChatCompletionAssistantMessageParam{
		Role: constant.ValueOf[constant.Assistant](),
	}
	if item.Text != "" {
		asst.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: param.NewOpt(item.Text),
		}
	}
	for _, tc := range item.ToolCalls {
		asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
				Type: constant.ValueOf[constant.Function](),
			},
		})
	}
	return asst
}

func (chatCmplConverter) ToolToOpenai(tool FunctionTool) (openai.ChatCompletionToolUnionParam, error) {
	if tool.Name == "" {
		return openai.ChatCompletionToolUnionParam{}, fmt.Errorf("function tool without a name")
	}

	var description param.Opt[string]
	if tool.Description != "" {
		description = param.NewOpt(tool.Description)
	}

	return openai.ChatCompletionFunctionTool(
		openai.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: description,
			Parameters:  tool.ParamsJSONSchema,
		},
	), nil
}
