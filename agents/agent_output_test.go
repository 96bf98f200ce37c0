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

package agents_test

import (
	"testing"

	"github.com/nlpodyssey/news-search-agent/agents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary,omitempty"`
}

func TestOutputSchema(t *testing.T) {
	schema := agents.NewOutputSchema[article]()

	assert.Equal(t, "agents_test.article", schema.Name())
	assert.True(t, schema.IsObject())

	js := schema.JSONSchema()
	assert.Equal(t, "object", js["type"])
	assert.Equal(t, false, js["additionalProperties"])
	assert.NotContains(t, js, "$schema")
	assert.ElementsMatch(t, []any{"title", "url"}, js["required"])

	t.Run("valid", func(t *testing.T) {
		out, err := schema.ValidateJSON(t.Context(), `{"title": "t", "url": "u"}`)
		require.NoError(t, err)
		assert.JSONEq(t, `{"title": "t", "url": "u"}`, out)
	})

	t.Run("missing required property", func(t *testing.T) {
		_, err := schema.ValidateJSON(t.Context(), `{"title": "t"}`)
		var behaviorErr *agents.ModelBehaviorError
		require.ErrorAs(t, err, &behaviorErr)
		assert.ErrorContains(t, err, "url")
	})

	t.Run("extra property", func(t *testing.T) {
		_, err := schema.ValidateJSON(t.Context(), `{"title": "t", "url": "u", "x": 1}`)
		assert.Error(t, err)
	})

	t.Run("no JSON", func(t *testing.T) {
		_, err := schema.ValidateJSON(t.Context(), "I could not find anything.")
		var behaviorErr *agents.ModelBehaviorError
		assert.ErrorAs(t, err, &behaviorErr)
	})
}

func TestOutputSchema_Array(t *testing.T) {
	schema := agents.NewOutputSchema[[]article]()
	assert.False(t, schema.IsObject())
	assert.Equal(t, "array", schema.JSONSchema()["type"])

	out, err := schema.ValidateJSON(t.Context(), "```json\n[]\n```")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	articles, err := agents.ParseOutput[[]article](`[{"title": "t", "url": "u"}]`)
	require.NoError(t, err)
	assert.Equal(t, []article{{Title: "t", URL: "u"}}, articles)
}

func TestParseOutput_Invalid(t *testing.T) {
	_, err := agents.ParseOutput[article](`[1, 2]`)
	var behaviorErr *agents.ModelBehaviorError
	assert.ErrorAs(t, err, &behaviorErr)
}

func TestExtractJSON(t *testing.T) {
	testCases := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"plain object", `{"a": 1}`, `{"a": 1}`, true},
		{"surrounding whitespace", "  [1, 2]\n", "[1, 2]", true},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`, true},
		{"fenced without tag", "```\n[]\n```", "[]", true},
		{"prose around", `Sure! Here it is: {"a": [1]} Hope this helps.`, `{"a": [1]}`, true},
		{"empty", "", "", false},
		{"no JSON", "nothing here", "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := agents.ExtractJSON(tc.text)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
