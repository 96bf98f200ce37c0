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
	"errors"
	"math"
	"testing"

	"github.com/nlpodyssey/news-search-agent/modelsettings"
	"github.com/nlpodyssey/news-search-agent/types/message"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGeminiGenerator struct {
	response *genai.GenerateContentResponse
	err      error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (g *fakeGeminiGenerator) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	g.model, g.contents, g.config = model, contents, config
	return g.response, g.err
}

func geminiResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromParts(parts, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:        10,
			CachedContentTokenCount: 3,
			CandidatesTokenCount:    4,
			ThoughtsTokenCount:      2,
			TotalTokenCount:         16,
		},
	}
}

func TestGeminiModel_GetResponse(t *testing.T) {
	gen := &fakeGeminiGenerator{response: geminiResponse(
		&genai.Part{Text: "thinking...", Thought: true},
		&genai.Part{Text: "Hello "},
		&genai.Part{Text: "world"},
	)}
	provider := NewGeminiProvider(GeminiProviderParams{Generator: gen})
	model, err := provider.GetModel("gemini-2.0-flash")
	require.NoError(t, err)

	resp, err := model.GetResponse(t.Context(), ModelRequest{
		SystemInstructions: "be brief",
		Input:              []message.Message{message.User("hi")},
	})
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", gen.model)
	assert.Equal(t, "Hello world", resp.Output.Text)
	assert.Equal(t, message.RoleAssistant, resp.Output.Role)

	assert.Equal(t, uint64(1), resp.Usage.Requests)
	assert.Equal(t, uint64(10), resp.Usage.InputTokens)
	assert.Equal(t, uint64(3), resp.Usage.CachedInputTokens)
	assert.Equal(t, uint64(4), resp.Usage.OutputTokens)
	assert.Equal(t, uint64(2), resp.Usage.ReasoningTokens)
	assert.Equal(t, uint64(16), resp.Usage.TotalTokens)

	require.NotNil(t, gen.config.SystemInstruction)
	assert.Equal(t, "be brief", gen.config.SystemInstruction.Parts[0].Text)
}

func TestGeminiModel_FunctionCall(t *testing.T) {
	gen := &fakeGeminiGenerator{response: geminiResponse(&genai.Part{
		FunctionCall: &genai.FunctionCall{Name: "search_engine", Args: map[string]any{"query": "go"}},
	})}
	model := NewGeminiModel("gemini-2.0-flash", gen)

	resp, err := model.GetResponse(t.Context(), ModelRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Output.ToolCalls, 1)
	assert.Equal(t, "search_engine", resp.Output.ToolCalls[0].Name)
	assert.JSONEq(t, `{"query": "go"}`, resp.Output.ToolCalls[0].Arguments)
}

func TestGeminiModel_Errors(t *testing.T) {
	t.Run("generator error", func(t *testing.T) {
		wantErr := errors.New("quota")
		model := NewGeminiModel("m", &fakeGeminiGenerator{err: wantErr})
		_, err := model.GetResponse(t.Context(), ModelRequest{})
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("no candidates", func(t *testing.T) {
		model := NewGeminiModel("m", &fakeGeminiGenerator{response: &genai.GenerateContentResponse{}})
		_, err := model.GetResponse(t.Context(), ModelRequest{})
		var behaviorErr *ModelBehaviorError
		assert.ErrorAs(t, err, &behaviorErr)
	})

	t.Run("blocked prompt", func(t *testing.T) {
		model := NewGeminiModel("m", &fakeGeminiGenerator{response: &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		}})
		_, err := model.GetResponse(t.Context(), ModelRequest{})
		assert.ErrorContains(t, err, "prompt blocked")
	})
}

func TestGeminiConverter_ItemsToContents(t *testing.T) {
	contents, err := GeminiConverter().ItemsToContents([]message.Message{
		message.User("topic"),
		{Role: message.RoleAssistant, Author: "r", ToolCalls: []message.ToolCall{
			{ID: "1", Name: "a", Arguments: `{"x": 1}`},
			{ID: "2", Name: "b", Arguments: ""},
		}},
		message.Tool("r", message.ToolResult{CallID: "1", Name: "a", Output: "A"}),
		message.Tool("r", message.ToolResult{CallID: "2", Name: "b", Output: "oops", IsError: true}),
		message.Assistant("r", "done"),
		{Role: message.RoleAssistant, Author: "r"},
	})
	require.NoError(t, err)
	require.Len(t, contents, 4)

	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, "topic", contents[0].Parts[0].Text)

	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, map[string]any{"x": float64(1)}, contents[1].Parts[0].FunctionCall.Args)
	assert.Equal(t, map[string]any{}, contents[1].Parts[1].FunctionCall.Args)
	assert.Empty(t, contents[1].Parts[0].FunctionCall.ID)

	// Both tool results are grouped in one user turn.
	assert.Equal(t, string(genai.RoleUser), contents[2].Role)
	require.Len(t, contents[2].Parts, 2)
	assert.Equal(t, "a", contents[2].Parts[0].FunctionResponse.Name)
	assert.Equal(t, map[string]any{"output": "A"}, contents[2].Parts[0].FunctionResponse.Response)
	assert.Equal(t, map[string]any{"error": "oops"}, contents[2].Parts[1].FunctionResponse.Response)

	assert.Equal(t, string(genai.RoleModel), contents[3].Role)
	assert.Equal(t, "done", contents[3].Parts[0].Text)
}

func TestGeminiConverter_ItemsToContents_InvalidArguments(t *testing.T) {
	_, err := GeminiConverter().ItemsToContents([]message.Message{
		{Role: message.RoleAssistant, ToolCalls: []message.ToolCall{{Name: "a", Arguments: "{"}}},
	})
	var behaviorErr *ModelBehaviorError
	assert.ErrorAs(t, err, &behaviorErr)
}

func TestGeminiConverter_Config(t *testing.T) {
	schema := NewOutputSchema[reportOutput]()
	settings := modelsettings.ModelSettings{
		Temperature: param.NewOpt(0.5),
		TopP:        param.NewOpt(0.9),
		MaxTokens:   param.NewOpt[int64](256),
		ToolChoice:  modelsettings.ToolChoiceRequired,
		Metadata:    map[string]string{"pipeline": "news"},
	}

	t.Run("with tools", func(t *testing.T) {
		config := GeminiConverter().Config(ModelRequest{
			ModelSettings: settings,
			OutputSchema:  schema,
			Tools: []FunctionTool{{
				Name:             "search_engine",
				Description:      "Search",
				ParamsJSONSchema: map[string]any{"type": "object"},
			}},
		}, genai.BackendGeminiAPI)

		assert.Equal(t, genai.Ptr[float32](0.5), config.Temperature)
		assert.Equal(t, genai.Ptr[float32](0.9), config.TopP)
		assert.Equal(t, int32(256), config.MaxOutputTokens)
		assert.Nil(t, config.Labels)

		require.Len(t, config.Tools, 1)
		require.Len(t, config.Tools[0].FunctionDeclarations, 1)
		decl := config.Tools[0].FunctionDeclarations[0]
		assert.Equal(t, "search_engine", decl.Name)
		assert.Equal(t, map[string]any{"type": "object"}, decl.ParametersJsonSchema)
		assert.Equal(t, genai.FunctionCallingConfigModeAny, config.ToolConfig.FunctionCallingConfig.Mode)

		// JSON mode can't be combined with function calling.
		assert.Empty(t, config.ResponseMIMEType)
		assert.Nil(t, config.ResponseJsonSchema)
	})

	t.Run("without tools", func(t *testing.T) {
		config := GeminiConverter().Config(ModelRequest{OutputSchema: schema}, genai.BackendGeminiAPI)
		assert.Nil(t, config.Tools)
		assert.Nil(t, config.ToolConfig)
		assert.Nil(t, config.SystemInstruction)
		assert.Equal(t, "application/json", config.ResponseMIMEType)
		assert.Equal(t, schema.JSONSchema(), config.ResponseJsonSchema)
	})
}

func TestGeminiConverter_Config_Labels(t *testing.T) {
	req := ModelRequest{ModelSettings: modelsettings.ModelSettings{
		Metadata: map[string]string{"pipeline": "news"},
	}}

	assert.Equal(t, map[string]string{"pipeline": "news"},
		GeminiConverter().Config(req, genai.BackendVertexAI).Labels)
	assert.Nil(t, GeminiConverter().Config(req, genai.BackendGeminiAPI).Labels)
	assert.Nil(t, GeminiConverter().Config(req, genai.BackendUnspecified).Labels)
}

func TestGeminiConverter_Config_MaxTokens(t *testing.T) {
	testCases := []struct {
		name string
		in   int64
		want int32
	}{
		{"in range", 1024, 1024},
		{"above int32", math.MaxInt32 + 10, math.MaxInt32},
		{"negative", -5, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := ModelRequest{ModelSettings: modelsettings.ModelSettings{MaxTokens: param.NewOpt(tc.in)}}
			assert.Equal(t, tc.want, GeminiConverter().Config(req, genai.BackendGeminiAPI).MaxOutputTokens)
		})
	}
}

func TestGeminiProvider_MissingAPIKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewGeminiProvider(GeminiProviderParams{}).GetModel("gemini-2.0-flash")
	var userErr *UserError
	assert.ErrorAs(t, err, &userErr)
}
