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
	"sync"

	"github.com/nlpodyssey/news-search-agent/agents"
	"github.com/nlpodyssey/news-search-agent/types/message"
	"github.com/nlpodyssey/news-search-agent/usage"
)

// FakeModel returns queued outputs, one per call, and records every request.
// When the queue is empty it returns an empty assistant message.
type FakeModel struct {
	mu             sync.Mutex
	TurnOutputs    []FakeModelTurnOutput
	Requests       []agents.ModelRequest
	HardcodedUsage *usage.Usage
}

type FakeModelTurnOutput struct {
	Value message.Message
	Error error
}

func NewFakeModel(outputs ...FakeModelTurnOutput) *FakeModel {
	return &FakeModel{TurnOutputs: outputs}
}

func (m *FakeModel) SetHardcodedUsage(u usage.Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HardcodedUsage = &u
}

func (m *FakeModel) SetNextOutput(output FakeModelTurnOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TurnOutputs = append(m.TurnOutputs, output)
}

func (m *FakeModel) AddMultipleTurnOutputs(outputs []FakeModelTurnOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TurnOutputs = append(m.TurnOutputs, outputs...)
}

// LastRequest returns the most recent request, or false if none was made.
func (m *FakeModel) LastRequest() (agents.ModelRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return agents.ModelRequest{}, false
	}
	return m.Requests[len(m.Requests)-1], true
}

// CallCount returns the number of GetResponse calls.
func (m *FakeModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

func (m *FakeModel) GetResponse(_ context.Context, req agents.ModelRequest) (*agents.ModelResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	var output FakeModelTurnOutput
	if len(m.TurnOutputs) > 0 {
		output = m.TurnOutputs[0]
		m.TurnOutputs = m.TurnOutputs[1:]
	} else {
		output.Value = message.Message{Role: message.RoleAssistant}
	}
	if output.Error != nil {
		return nil, output.Error
	}

	u := usage.NewUsage()
	if m.HardcodedUsage != nil {
		*u = *m.HardcodedUsage
	} else {
		u.Requests = 1
	}
	return &agents.ModelResponse{Output: output.Value, Usage: u}, nil
}

// FakeModelProvider resolves every model name to the same model.
type FakeModelProvider struct {
	Model agents.Model
	Names []string
	mu    sync.Mutex
}

func (p *FakeModelProvider) GetModel(modelName string) (agents.Model, error) {
	p.mu.Lock()
	p.Names = append(p.Names, modelName)
	p.mu.Unlock()
	return p.Model, nil
}
