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

// Package message defines the provider-neutral conversation items exchanged
// between pipeline stages, models and sessions.
package message

import (
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single conversation item.
//
// An assistant message can carry text, tool calls, or both. A tool message
// carries exactly one ToolResult answering a previous ToolCall.
type Message struct {
	Role Role `json:"role"`

	// Name of the agent that produced the message. Empty for user input.
	Author string `json:"author,omitempty"`

	Text       string      `json:"text,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

type ToolCall struct {
	// Provider-assigned call identifier. Some providers leave it empty.
	ID string `json:"id,omitempty"`

	Name string `json:"name"`

	// JSON-encoded arguments.
	Arguments string `json:"arguments"`
}

type ToolResult struct {
	CallID  string `json:"call_id,omitempty"`
	Name    string `json:"name"`
	Output  string `json:"output"`
	IsError bool   `json:"is_error,omitempty"`
}

func User(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

func Assistant(author, text string) Message {
	return Message{Role: RoleAssistant, Author: author, Text: text}
}

func Tool(author string, result ToolResult) Message {
	return Message{Role: RoleTool, Author: author, ToolResult: &result}
}

// HasToolCalls reports whether the message requests at least one tool invocation.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// TextOutputs concatenates the text of all assistant messages.
func TextOutputs(messages []Message) string {
	var sb strings.Builder
	for _, m := range messages {
		if m.Role == RoleAssistant && m.Text != "" {
			sb.WriteString(m.Text)
		}
	}
	return sb.String()
}
