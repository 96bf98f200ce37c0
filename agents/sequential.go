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
	"errors"
	"fmt"
)

// SequentialAgent runs its sub-agents one after the other. Each sub-agent
// sees the conversation produced so far, and writes its final output to
// the session state under its OutputKey.
type SequentialAgent struct {
	Name        string
	Description string
	SubAgents   []*Agent
}

func NewSequentialAgent(name string, subAgents ...*Agent) *SequentialAgent {
	return &SequentialAgent{Name: name, SubAgents: subAgents}
}

// WithDescription sets the pipeline description.
func (s *SequentialAgent) WithDescription(desc string) *SequentialAgent {
	s.Description = desc
	return s
}

// FindAgent returns the sub-agent with the given name.
func (s *SequentialAgent) FindAgent(name string) (*Agent, bool) {
	for _, a := range s.SubAgents {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Validate checks that the pipeline has at least one sub-agent and that
// sub-agent names are non-empty and unique.
func (s *SequentialAgent) Validate() error {
	if len(s.SubAgents) == 0 {
		return UserErrorf("pipeline %q has no sub-agents", s.Name)
	}
	var errs []error
	seen := make(map[string]struct{}, len(s.SubAgents))
	for i, a := range s.SubAgents {
		switch {
		case a == nil:
			errs = append(errs, fmt.Errorf("sub-agent %d is nil", i))
			continue
		case a.Name == "":
			errs = append(errs, fmt.Errorf("sub-agent %d has no name", i))
		}
		if _, ok := seen[a.Name]; ok {
			errs = append(errs, fmt.Errorf("duplicate sub-agent name %q", a.Name))
		}
		seen[a.Name] = struct{}{}
	}
	if err := errors.Join(errs...); err != nil {
		return UserErrorf("invalid pipeline %q: %w", s.Name, err)
	}
	return nil
}
