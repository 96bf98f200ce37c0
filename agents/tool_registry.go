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
	"sync/atomic"
)

// ToolRegistry is a write-once cell of tools shared between the component
// that obtains the tools and the agents that use them.
//
// Readers never block. Before Publish, Tools returns nil.
type ToolRegistry struct {
	tools atomic.Pointer[[]FunctionTool]
}

func NewToolRegistry() *ToolRegistry {
	return new(ToolRegistry)
}

// Publish stores tools in the registry. Only the first call has effect; it
// reports whether this call was the one that stored the tools.
func (r *ToolRegistry) Publish(tools []FunctionTool) bool {
	return r.tools.CompareAndSwap(nil, &tools)
}

// Tools returns the published tools, or nil.
func (r *ToolRegistry) Tools() []FunctionTool {
	if p := r.tools.Load(); p != nil {
		return *p
	}
	return nil
}

// IsPublished reports whether Publish has been called.
func (r *ToolRegistry) IsPublished() bool {
	return r.tools.Load() != nil
}
