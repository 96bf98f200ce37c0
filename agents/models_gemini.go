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
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/nlpodyssey/news-search-agent/modelsettings"
	"github.com/nlpodyssey/news-search-agent/types/message"
	"github.com/nlpodyssey/news-search-agent/usage"
	"google.golang.org/genai"
)

// GeminiContentGenerator is the part of the genai client used by
// GeminiModel. *genai.Models satisfies it.
type GeminiContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiModel calls the Gemini generateContent API.
type GeminiModel struct {
	Model string

	// Backend the generator talks to. Labels are only sent to Vertex AI.
	Backend genai.Backend

	generator GeminiContentGenerator
}

// NewGeminiModel returns a model for the Gemini Developer API.
func NewGeminiModel(model string, generator GeminiContentGenerator) GeminiModel {
	return GeminiModel{
		Model:     model,
		Backend:   genai.BackendGeminiAPI,
		generator: generator,
	}
}

func (m GeminiModel) GetResponse(ctx context.Context, req ModelRequest) (*ModelResponse, error) {
	contents, err := GeminiConverter().ItemsToContents(req.Input)
	if err != nil {
		return nil, err
	}
	config := GeminiConverter().Config(req, m.Backend)

	if DontLogModelData {
		Logger().Debug("Calling LLM", slog.String("model", m.Model))
	} else {
		Logger().Debug("Calling LLM",
			slog.String("model", m.Model),
			slog.Int("contents", len(contents)),
			slog.Int("tools", len(req.Tools)),
			slog.String("systemInstructions", req.SystemInstructions))
	}

	response, err := m.generator.GenerateContent(ctx, m.Model, contents, config)
	if err != nil {
		return nil, err
	}

	out, err := GeminiConverter().ResponseToMessage(response)
	if err != nil {
		return nil, err
	}

	if DontLogModelData {
		Logger().Debug("LLM responded")
	} else {
		Logger().Debug("LLM responded",
			slog.String("text", out.Text),
			slog.Int("toolCalls", len(out.ToolCalls)))
	}

	return &ModelResponse{
		Output: out,
		Usage:  GeminiConverter().Usage(response.UsageMetadata),
	}, nil
}

type geminiConverter struct{}

func GeminiConverter() geminiConverter { return geminiConverter{} }

// ItemsToContents converts the conversation into Gemini contents.
// Consecutive tool results are grouped into a single user content, as
// Gemini expects all responses to a model turn together.
func (geminiConverter) ItemsToContents(items []message.Message) ([]*genai.Content, error) {
	var contents []*genai.Content
	var pendingResponses []*genai.Part

	flush := func() {
		if len(pendingResponses) > 0 {
			contents = append(contents, genai.NewContentFromParts(pendingResponses, genai.RoleUser))
			pendingResponses = nil
		}
	}

	for i, item := range items {
		switch item.Role {
		case message.RoleTool:
			if item.ToolResult == nil {
				return nil, UserErrorf("tool message %d has no result", i)
			}
			key := "output"
			if item.ToolResult.IsError {
				key = "error"
			}
			pendingResponses = append(pendingResponses, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     item.ToolResult.Name,
					Response: map[string]any{key: item.ToolResult.Output},
				},
			})
		case message.RoleUser:
			flush()
			contents = append(contents, genai.NewContentFromText(item.Text, genai.RoleUser))
		case message.RoleAssistant:
			flush()
			var parts []*genai.Part
			if item.Text != "" {
				parts = append(parts, &genai.Part{Text: item.Text})
			}
			for _, tc := range item.ToolCalls {
				args := make(map[string]any)
				if strings.TrimSpace(tc.Arguments) != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
						return nil, ModelBehaviorErrorf("invalid arguments for tool call %s: %w", tc.Name, err)
					}
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: args},
				})
			}
			if len(parts) == 0 {
				// An empty model turn is rejected by the API.
				continue
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
		default:
			return nil, UserErrorf("unexpected message role %q", item.Role)
		}
	}
	flush()
	return contents, nil
}

// Config builds the generation config for req sent to backend.
//
// Gemini can't combine function calling with a JSON response schema, so
// the schema is only sent when the request has no tools. Metadata becomes
// labels on Vertex AI only; the Gemini Developer API rejects them.
func (conv geminiConverter) Config(req ModelRequest, backend genai.Backend) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.SystemInstructions != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstructions, genai.RoleUser)
	}

	settings := req.ModelSettings
	if settings.Temperature.Valid() {
		config.Temperature = genai.Ptr(float32(settings.Temperature.Value))
	}
	if settings.TopP.Valid() {
		config.TopP = genai.Ptr(float32(settings.TopP.Value))
	}
	if settings.MaxTokens.Valid() {
		config.MaxOutputTokens = int32(max(0, min(settings.MaxTokens.Value, math.MaxInt32)))
	}
	if len(settings.Metadata) > 0 {
		if backend == genai.BackendVertexAI {
			config.Labels = settings.Metadata
		} else {
			Logger().Debug("Metadata not sent as labels: only Vertex AI accepts them",
				slog.Any("backend", backend))
		}
	}

	if len(req.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, tool := range req.Tools {
			declarations[i] = &genai.FunctionDeclaration{
				Name:                 tool.Name,
				Description:          tool.Description,
				ParametersJsonSchema: tool.ParamsJSONSchema,
			}
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
		if mode, ok := conv.functionCallingMode(settings.ToolChoice); ok {
			config.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode},
			}
		}
	} else if req.OutputSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = req.OutputSchema.JSONSchema()
	}
	return config
}

func (geminiConverter) functionCallingMode(toolChoice modelsettings.ToolChoice) (genai.FunctionCallingConfigMode, bool) {
	switch toolChoice {
	case modelsettings.ToolChoiceAuto:
		return genai.FunctionCallingConfigModeAuto, true
	case modelsettings.ToolChoiceRequired:
		return genai.FunctionCallingConfigModeAny, true
	case modelsettings.ToolChoiceNone:
		return genai.FunctionCallingConfigModeNone, true
	default:
		return "", false
	}
}

func (geminiConverter) ResponseToMessage(response *genai.GenerateContentResponse) (message.Message, error) {
	out := message.Message{Role: message.RoleAssistant}
	if response == nil || len(response.Candidates) == 0 {
		if response != nil && response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			return out, ModelBehaviorErrorf("prompt blocked: %s", response.PromptFeedback.BlockReason)
		}
		return out, NewModelBehaviorError("Gemini returned no candidates")
	}

	candidate := response.Candidates[0]
	if candidate.Content == nil {
		if candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonStop {
			return out, ModelBehaviorErrorf("Gemini returned no content (finish reason %s)", candidate.FinishReason)
		}
		return out, nil
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		switch {
		case part == nil, part.Thought:
			continue
		case part.FunctionCall != nil:
			callArgs := part.FunctionCall.Args
			if callArgs == nil {
				callArgs = map[string]any{}
			}
			args, err := json.Marshal(callArgs)
			if err != nil {
				return out, fmt.Errorf("failed to JSON-marshal function call arguments: %w", err)
			}
			out.ToolCalls = append(out.ToolCalls, message.ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: string(args),
			})
		case part.Text != "":
			text.WriteString(part.Text)
		}
	}
	out.Text = text.String()
	return out, nil
}

func (geminiConverter) Usage(metadata *genai.GenerateContentResponseUsageMetadata) *usage.Usage {
	u := usage.NewUsage()
	u.Requests = 1
	if metadata == nil {
		return u
	}
	u.InputTokens = uint64(metadata.PromptTokenCount)
	u.CachedInputTokens = uint64(metadata.CachedContentTokenCount)
	u.OutputTokens = uint64(metadata.CandidatesTokenCount)
	u.ReasoningTokens = uint64(metadata.ThoughtsTokenCount)
	u.TotalTokens = uint64(metadata.TotalTokenCount)
	return u
}

type GeminiProviderParams struct {
	// The API key to use. Defaults to the GOOGLE_API_KEY or GEMINI_API_KEY
	// environment variables.
	APIKey string

	// Optional generator to use instead of a client built from APIKey.
	Generator GeminiContentGenerator
}

// GeminiProvider creates Gemini models backed by the Gemini Developer API.
type GeminiProvider struct {
	params    GeminiProviderParams
	mu        sync.Mutex
	generator GeminiContentGenerator
}

func NewGeminiProvider(params GeminiProviderParams) *GeminiProvider {
	return &GeminiProvider{
		params:    params,
		generator: params.Generator,
	}
}

func (provider *GeminiProvider) GetModel(modelName string) (Model, error) {
	if modelName == "" {
		return nil, fmt.Errorf("cannot get Gemini model without a name")
	}
	generator, err := provider.getGenerator()
	if err != nil {
		return nil, err
	}
	return NewGeminiModel(modelName, generator), nil
}

// The client is created lazily, on first use.
func (provider *GeminiProvider) getGenerator() (GeminiContentGenerator, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	if provider.generator != nil {
		return provider.generator, nil
	}

	apiKey := cmp.Or(provider.params.APIKey, os.Getenv("GOOGLE_API_KEY"), os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, NewUserError("GeminiProvider: an API key is missing, set GOOGLE_API_KEY")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	provider.generator = client.Models
	return provider.generator, nil
}
