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
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPServer is implemented by Model Context Protocol servers.
type MCPServer interface {
	// Connect to the server.
	//
	// For example, this might mean spawning a subprocess or opening a network connection.
	// The server is expected to remain connected until Cleanup is called.
	Connect(context.Context) error

	// Cleanup the server.
	//
	// It is safe to call Cleanup more than once, and on a server that was
	// never connected.
	Cleanup(context.Context) error

	// Name returns a readable name for the server.
	Name() string

	// UseStructuredContent reports whether to use a tool result's
	// StructuredContent when calling an MCP tool.
	UseStructuredContent() bool

	// ListTools lists the tools available on the server, after filtering.
	ListTools(context.Context) ([]*mcp.Tool, error)

	// CallTool invokes a tool on the server.
	CallTool(ctx context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error)
}

// MCPServerWithClientSession is a base type for MCP servers that uses an
// mcp.ClientSession to communicate with the server.
type MCPServerWithClientSession struct {
	transport            mcp.Transport
	mu                   sync.Mutex
	session              *mcp.ClientSession
	cacheToolsList       bool
	toolsList            []*mcp.Tool
	toolFilter           MCPToolFilter
	name                 string
	useStructuredContent bool
}

type MCPServerWithClientSessionParams struct {
	Name      string
	Transport mcp.Transport

	// Whether to cache the tools list. If true, the tools list is fetched
	// from the server only once.
	CacheToolsList bool

	// The tool filter to use for filtering tools.
	ToolFilter MCPToolFilter

	// Whether to use StructuredContent when calling an MCP tool.
	UseStructuredContent bool
}

func NewMCPServerWithClientSession(params MCPServerWithClientSessionParams) *MCPServerWithClientSession {
	return &MCPServerWithClientSession{
		transport:            params.Transport,
		cacheToolsList:       params.CacheToolsList,
		toolFilter:           params.ToolFilter,
		name:                 params.Name,
		useStructuredContent: params.UseStructuredContent,
	}
}

func (s *MCPServerWithClientSession) Connect(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			Logger().Error("Error initializing MCP server",
				slog.String("server", s.name),
				slog.String("error", err.Error()))
			if e := s.Cleanup(ctx); e != nil {
				err = errors.Join(err, fmt.Errorf("MCP server cleanup error: %w", e))
			}
		}
	}()

	if s.transport == nil {
		return NewUserError("MCP server has no transport")
	}

	client := mcp.NewClient(&mcp.Implementation{Name: s.name}, nil)
	session, err := client.Connect(ctx, s.transport)
	if err != nil {
		return fmt.Errorf("MCP client connection error: %w", err)
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	return nil
}

// Cleanup closes the client session. The session handle is cleared on the
// first call, so subsequent calls are no-ops.
func (s *MCPServerWithClientSession) Cleanup(context.Context) error {
	s.mu.Lock()
	session := s.session
	s.session = nil
	s.toolsList = nil
	s.mu.Unlock()

	if session == nil {
		return nil
	}
	err := session.Close()
	if err != nil {
		Logger().Error("Error cleaning up server",
			slog.String("server", s.name),
			slog.String("error", err.Error()))
	}
	return err
}

func (s *MCPServerWithClientSession) Name() string {
	return s.name
}

func (s *MCPServerWithClientSession) UseStructuredContent() bool {
	return s.useStructuredContent
}

func (s *MCPServerWithClientSession) currentSession() (*mcp.ClientSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, NewUserError("server not initialized: make sure you call `Connect()` first")
	}
	return s.session, nil
}

func (s *MCPServerWithClientSession) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	session, err := s.currentSession()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	tools := s.toolsList
	s.mu.Unlock()

	if !s.cacheToolsList || tools == nil {
		listToolsResult, err := session.ListTools(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("MCP list tools error: %w", err)
		}
		tools = listToolsResult.Tools
		if s.cacheToolsList {
			s.mu.Lock()
			s.toolsList = tools
			s.mu.Unlock()
		}
	}

	filterContext := MCPToolFilterContext{ServerName: s.name}
	return ApplyMCPToolFilter(ctx, filterContext, s.toolFilter, tools), nil
}

func (s *MCPServerWithClientSession) CallTool(ctx context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error) {
	session, err := s.currentSession()
	if err != nil {
		return nil, err
	}
	return session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: arguments,
	})
}

// InvalidateToolsCache drops the cached tools list, if any.
func (s *MCPServerWithClientSession) InvalidateToolsCache() {
	s.mu.Lock()
	s.toolsList = nil
	s.mu.Unlock()
}

type MCPServerStdioParams struct {
	// The command to run to start the server. Its Env is passed to the
	// subprocess as is.
	Command *exec.Cmd

	// Whether to cache the tools list.
	CacheToolsList bool

	// A readable name for the server. If not provided, we'll create one from the command.
	Name string

	// Optional tool filter to use for filtering tools
	ToolFilter MCPToolFilter

	// Whether to use StructuredContent when calling an MCP tool.
	UseStructuredContent bool
}

// MCPServerStdio is an MCP server implementation that uses the stdio transport:
// the server runs as a subprocess speaking JSON-RPC over stdin/stdout.
//
// See: https://modelcontextprotocol.io/specification/2025-06-18/basic/transports#stdio
type MCPServerStdio struct {
	*MCPServerWithClientSession
}

// NewMCPServerStdio creates a new MCP server based on the stdio transport.
func NewMCPServerStdio(params MCPServerStdioParams) *MCPServerStdio {
	name := params.Name
	if name == "" {
		name = fmt.Sprintf("stdio: %s", strings.Join(params.Command.Args, " "))
	}

	return &MCPServerStdio{
		MCPServerWithClientSession: NewMCPServerWithClientSession(MCPServerWithClientSessionParams{
			Name:                 name,
			Transport:            mcp.NewCommandTransport(params.Command),
			CacheToolsList:       params.CacheToolsList,
			ToolFilter:           params.ToolFilter,
			UseStructuredContent: params.UseStructuredContent,
		}),
	}
}

type MCPServerStreamableHTTPParams struct {
	URL           string
	TransportOpts *mcp.StreamableClientTransportOptions

	// Whether to cache the tools list.
	CacheToolsList bool

	// A readable name for the server. If not provided, we'll create one from the URL.
	Name string

	// Optional tool filter to use for filtering tools
	ToolFilter MCPToolFilter

	// Whether to use StructuredContent when calling an MCP tool.
	UseStructuredContent bool
}

// MCPServerStreamableHTTP is an MCP server implementation that uses the
// Streamable HTTP transport, for tool servers hosted remotely.
//
// See: https://modelcontextprotocol.io/specification/2025-06-18/basic/transports#streamable-http
type MCPServerStreamableHTTP struct {
	*MCPServerWithClientSession
}

func NewMCPServerStreamableHTTP(params MCPServerStreamableHTTPParams) *MCPServerStreamableHTTP {
	name := params.Name
	if name == "" {
		name = fmt.Sprintf("streamable_http: %s", params.URL)
	}

	return &MCPServerStreamableHTTP{
		MCPServerWithClientSession: NewMCPServerWithClientSession(MCPServerWithClientSessionParams{
			Name:                 name,
			Transport:            mcp.NewStreamableClientTransport(params.URL, params.TransportOpts),
			CacheToolsList:       params.CacheToolsList,
			ToolFilter:           params.ToolFilter,
			UseStructuredContent: params.UseStructuredContent,
		}),
	}
}
