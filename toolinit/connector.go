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

package toolinit

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/nlpodyssey/news-search-agent/agents"
)

type MCPConnectorParams struct {
	// A readable name for the server.
	Name string

	// Command and arguments launching a stdio MCP server.
	Command string
	Args    []string

	// Variables added to the parent environment of the server process.
	Env map[string]string

	// Where the server process writes its stderr. Defaults to io.Discard.
	Stderr io.Writer

	// URL of a Streamable HTTP MCP server, used instead of Command.
	URL string

	// Optional upper bound on the time needed to connect and list tools.
	ConnectTimeout time.Duration

	// Optional static tool filter.
	AllowedTools []string
	BlockedTools []string

	// Whether to use StructuredContent of tool results.
	UseStructuredContent bool

	// Optional server to use instead of building one from Command or URL.
	Server agents.MCPServer
}

// MCPConnector is a Connector for a Model Context Protocol server.
type MCPConnector struct {
	params MCPConnectorParams

	mu     sync.Mutex
	server agents.MCPServer
}

func NewMCPConnector(params MCPConnectorParams) *MCPConnector {
	return &MCPConnector{params: params}
}

// Connect launches or reaches the server, lists its tools and converts them
// to function tools forwarding calls to the server. A server exposing no
// tools is an error. On error the server is cleaned up.
func (c *MCPConnector) Connect(ctx context.Context) (_ []agents.FunctionTool, err error) {
	server, err := c.newServer()
	if err != nil {
		return nil, err
	}

	if c.params.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.params.ConnectTimeout)
		defer cancel()
	}

	defer func() {
		if err != nil {
			if e := server.Cleanup(context.WithoutCancel(ctx)); e != nil {
				err = errors.Join(err, fmt.Errorf("MCP server cleanup error: %w", e))
			}
		}
	}()

	agents.Logger().Debug("Connecting to MCP server", slog.String("server", server.Name()))
	if err = server.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server %s: %w", server.Name(), err)
	}

	tools, err := agents.MCPUtil().GetFunctionTools(ctx, server)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools of MCP server %s: %w", server.Name(), err)
	}
	if len(tools) == 0 {
		return nil, fmt.Errorf("MCP server %s exposes no tools", server.Name())
	}

	c.mu.Lock()
	c.server = server
	c.mu.Unlock()
	return tools, nil
}

// Close cleans up the connected server. Calls after the first one, and
// calls without a connected server, do nothing.
func (c *MCPConnector) Close(ctx context.Context) error {
	c.mu.Lock()
	server := c.server
	c.server = nil
	c.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Cleanup(ctx)
}

func (c *MCPConnector) newServer() (agents.MCPServer, error) {
	p := c.params
	if p.Server != nil {
		return p.Server, nil
	}

	var toolFilter agents.MCPToolFilter
	if f, ok := agents.CreateMCPStaticToolFilter(p.AllowedTools, p.BlockedTools); ok {
		toolFilter = f
	}

	switch {
	case p.URL != "":
		return agents.NewMCPServerStreamableHTTP(agents.MCPServerStreamableHTTPParams{
			URL:                  p.URL,
			Name:                 p.Name,
			ToolFilter:           toolFilter,
			UseStructuredContent: p.UseStructuredContent,
		}), nil
	case p.Command != "":
		return agents.NewMCPServerStdio(agents.MCPServerStdioParams{
			Command:              c.command(),
			Name:                 p.Name,
			ToolFilter:           toolFilter,
			UseStructuredContent: p.UseStructuredContent,
		}), nil
	default:
		return nil, agents.NewUserError("MCP connector needs a command or a URL")
	}
}

func (c *MCPConnector) command() *exec.Cmd {
	p := c.params
	cmd := exec.Command(p.Command, p.Args...)
	cmd.Env = os.Environ()
	for _, k := range slices.Sorted(maps.Keys(p.Env)) {
		cmd.Env = append(cmd.Env, k+"="+p.Env[k])
	}
	cmd.Stderr = cmp.Or[io.Writer](p.Stderr, io.Discard)
	return cmd
}
