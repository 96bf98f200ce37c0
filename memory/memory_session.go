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
	"maps"
	"slices"
	"sync"

	"github.com/nlpodyssey/news-search-agent/types/message"
)

// InMemorySession keeps history and state in process memory.
type InMemorySession struct {
	sessionID string
	mu        sync.Mutex
	items     []message.Message
	state     map[string]any
}

func NewInMemorySession(sessionID string) *InMemorySession {
	return &InMemorySession{
		sessionID: sessionID,
		state:     make(map[string]any),
	}
}

func (s *InMemorySession) SessionID(context.Context) string {
	return s.sessionID
}

func (s *InMemorySession) GetItems(_ context.Context, limit int) ([]message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.items
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return slices.Clone(trimLeadingToolResults(items)), nil
}

func (s *InMemorySession) AddItems(_ context.Context, items []message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
	return nil
}

func (s *InMemorySession) PopItem(context.Context) (*message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil, nil
	}
	item := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return &item, nil
}

func (s *InMemorySession) ClearSession(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.state = make(map[string]any)
	return nil
}

func (s *InMemorySession) GetState(context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.state), nil
}

func (s *InMemorySession) UpdateState(_ context.Context, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = mergeState(s.state, delta)
	return nil
}
