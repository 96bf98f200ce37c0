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

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/nlpodyssey/news-search-agent/types/message"
)

// Session stores the conversation history and the key/value state of a
// pipeline across runs.
type Session interface {
	SessionID(context.Context) string

	// GetItems retrieves the conversation history for this session.
	//
	// `limit` is the maximum number of items to retrieve. If <= 0, retrieves all items.
	// When specified, returns the latest N items in chronological order.
	GetItems(ctx context.Context, limit int) ([]message.Message, error)

	// AddItems adds new items to the conversation history.
	AddItems(ctx context.Context, items []message.Message) error

	// PopItem removes and returns the most recent item from the session.
	// It returns nil if the session is empty.
	PopItem(context.Context) (*message.Message, error)

	// ClearSession clears all items and state for this session.
	ClearSession(context.Context) error

	// GetState returns a copy of the session state.
	GetState(context.Context) (map[string]any, error)

	// UpdateState merges delta into the session state.
	UpdateState(ctx context.Context, delta map[string]any) error
}

// Tool results must follow the assistant message carrying their call, so a
// window of history starting with a tool result drops it.
func trimLeadingToolResults(items []message.Message) []message.Message {
	for len(items) > 0 && items[0].Role == message.RoleTool {
		items = items[1:]
	}
	return items
}

func marshalState(state map[string]any) (string, error) {
	if state == nil {
		state = map[string]any{}
	}
	b, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("error JSON marshaling session state: %w", err)
	}
	return string(b), nil
}

func unmarshalState(data string) (map[string]any, error) {
	state := make(map[string]any)
	if data == "" {
		return state, nil
	}
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("error JSON unmarshaling session state: %w", err)
	}
	return state, nil
}

func mergeState(state, delta map[string]any) map[string]any {
	if state == nil {
		state = make(map[string]any, len(delta))
	}
	maps.Copy(state, delta)
	return state
}

func unmarshalMessageData(messageData string) (message.Message, error) {
	var item message.Message
	err := json.Unmarshal([]byte(messageData), &item)
	return item, err
}
