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
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nlpodyssey/news-search-agent/agents"
)

type FakeMCPServer struct {
	name         string
	mu           sync.Mutex
	Tools        []*mcp.Tool
	ToolCalls    []string
	ToolResults  []string
	ToolFilter   agents.MCPToolFilter
	ConnectErr   error
	ListToolsErr error
	connects     int
	cleanups     int
}

func NewFakeMCPServer(
	tools []*mcp.Tool,
	toolFilter agents.MCPToolFilter,
	name string,
) *FakeMCPServer {
	return &FakeMCPServer{
		name:       cmp.Or(name, "fake_mcp_server"),
		Tools:      tools,
		ToolFilter: toolFilter,
	}
}

// AddTool adds a tool with the given name. inputSchema, if not empty, is
// the JSON text of the tool input schema.
func (s *FakeMCPServer) AddTool(name, inputSchema string) {
	tool := &mcp.Tool{Name: name}
	if inputSchema != "" {
		raw := fmt.Sprintf(`{"name": %q, "inputSchema": %s}`, name, inputSchema)
		if err := json.Unmarshal([]byte(raw), tool); err != nil {
			panic(err)
		}
	}
	s.Tools = append(s.Tools, tool)
}

func (s *FakeMCPServer) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	return s.ConnectErr
}

func (s *FakeMCPServer) Cleanup(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanups++
	return nil
}

func (s *FakeMCPServer) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

func (s *FakeMCPServer) Cleanups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanups
}

func (s *FakeMCPServer) Name() string               { return s.name }
func (s *FakeMCPServer) UseStructuredContent() bool { return false }

func (s *FakeMCPServer) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	if s.ListToolsErr != nil {
		return nil, s.ListToolsErr
	}
	// Apply tool filtering using the REAL implementation
	filterContext := agents.MCPToolFilterContext{ServerName: s.name}
	return agents.ApplyMCPToolFilter(ctx, filterContext, s.ToolFilter, s.Tools), nil
}

func (s *FakeMCPServer) CallTool(_ context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(arguments)
	if err != nil {
		return nil, err
	}
	result := fmt.Sprintf("result_%s_%s", toolName, string(b))

	s.mu.Lock()
	s.ToolCalls = append(s.ToolCalls, toolName)
	s.ToolResults = append(s.ToolResults, result)
	s.mu.Unlock()

	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: result}}}, nil
}
