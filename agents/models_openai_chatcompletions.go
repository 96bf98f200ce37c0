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
	"log/slog"
	"slices"

	"github.com/nlpodyssey/news-search-agent/usage"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared/constant"
)

type OpenAIChatCompletionsModel struct {
	Model  openai.ChatModel
	client OpenaiClient
}

func NewOpenAIChatCompletionsModel(model openai.ChatModel, client OpenaiClient) OpenAIChatCompletionsModel {
	return OpenAIChatCompletionsModel{
		Model:  model,
		client: client,
	}
}

func (m OpenAIChatCompletionsModel) GetResponse(ctx context.Context, req ModelRequest) (*ModelResponse, error) {
	body, err := m.prepareRequest(req)
	if err != nil {
		return nil, err
	}

	response, err := m.client.Chat.Completions.New(ctx, *body)
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, NewModelBehaviorError("chat completion returned no choices")
	}

	if DontLogModelData {
		Logger().Debug("LLM responded")
	} else {
		Logger().Debug("LLM responded", slog.String("message", response.Choices[0].Message.RawJSON()))
	}

	u := usage.NewUsage()
	u.Requests = 1
	u.InputTokens = uint64(response.Usage.PromptTokens)
	u.CachedInputTokens = uint64(response.Usage.PromptTokensDetails.CachedTokens)
	u.OutputTokens = uint64(response.Usage.CompletionTokens)
	u.ReasoningTokens = uint64(response.Usage.CompletionTokensDetails.ReasoningTokens)
	u.TotalTokens = uint64(response.Usage.TotalTokens)

	return &ModelResponse{
		Output: ChatCmplConverter().MessageFromCompletion(response.Choices[0].Message),
		Usage:  u,
	}, nil
}

func (m OpenAIChatCompletionsModel) prepareRequest(req ModelRequest) (*openai.ChatCompletionNewParams, error) {
	conv := ChatCmplConverter()

	convertedMessages, err := conv.ItemsToMessages(req.Input)
	if err != nil {
		return nil, err
	}

	if req.SystemInstructions != "" {
		convertedMessages = slices.Insert(convertedMessages, 0, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: param.NewOpt(req.SystemInstructions),
				},
				Role: constant.ValueOf[constant.System](),
			},
		})
	}

	settings := req.ModelSettings
	body := &openai.ChatCompletionNewParams{
		Model:       m.Model,
		Messages:    convertedMessages,
		Temperature: settings.Temperature,
		TopP:        settings.TopP,
	}
	if settings.MaxTokens.Valid() {
		body.MaxCompletionTokens = settings.MaxTokens
	}

	if len(req.Tools) > 0 {
		for _, tool := range req.Tools {
			v, err := conv.ToolToOpenai(tool)
			if err != nil {
				return nil, err
			}
			body.Tools = append(body.Tools, v)
		}
		body.ToolChoice = conv.ConvertToolChoice(settings.ToolChoice)
		if settings.ParallelToolCalls.Valid() {
			body.ParallelToolCalls = settings.ParallelToolCalls
		}
	}

	if responseFormat, ok := conv.ConvertResponseFormat(req.OutputSchema); ok {
		body.ResponseFormat = responseFormat
	}

	if DontLogModelData {
		Logger().Debug("Calling LLM", slog.String("model", string(m.Model)))
	} else {
		Logger().Debug("Calling LLM",
			slog.String("model", string(m.Model)),
			slog.Int("messages", len(convertedMessages)),
			slog.Int("tools", len(body.Tools)),
			slog.String("systemInstructions", req.SystemInstructions))
	}

	return body, nil
}
