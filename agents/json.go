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
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

func ValidateJSON(ctx context.Context, schema *gojsonschema.Schema, jsonValue string) error {
	loader := gojsonschema.NewStringLoader(jsonValue)
	result, err := schema.Validate(loader)
	if err != nil {
		return ModelBehaviorErrorf("failed to load and validate JSON: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("JSON validation failed with the following errors:\n")
	for _, e := range result.Errors() {
		_, _ = fmt.Fprintf(&sb, "- %s\n", e)
	}
	Logger().DebugContext(ctx, "Invalid JSON output", slog.Int("errors", len(result.Errors())))
	return NewModelBehaviorError(sb.String())
}

// ExtractJSON returns the first JSON object or array found in text.
//
// Models often wrap JSON in Markdown code fences or surround it with
// prose; both are tolerated. The whole text is returned when it is valid
// JSON on its own.
func ExtractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if gjson.Valid(text) {
		return text, true
	}
	if fenced, ok := stripCodeFence(text); ok && gjson.Valid(fenced) {
		return fenced, true
	}

	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		raw := gjson.Parse(text[i:]).Raw
		if raw != "" && gjson.Valid(raw) {
			return raw, true
		}
	}
	return "", false
}

func stripCodeFence(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	body := text[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// Drop the language tag, e.g. "json".
		body = body[nl+1:]
	}
	end := strings.LastIndex(body, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}
