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
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nlpodyssey/news-search-agent/util"
)

// MCPToolFilterContext provides context information available to tool filter functions.
type MCPToolFilterContext struct {
	// The name of the MCP server.
	ServerName string
}

type MCPToolFilter interface {
	// FilterMCPTool determines whether a tool should be available (true) or
	// filtered out (false).
	FilterMCPTool(context.Context, MCPToolFilterContext, *mcp.Tool) (bool, error)
}

type MCPToolFilterFunc func(context.Context, MCPToolFilterContext, *mcp.Tool) (bool, error)

func (f MCPToolFilterFunc) FilterMCPTool(ctx context.Context, filterCtx MCPToolFilterContext, t *mcp.Tool) (bool, error) {
	return f(ctx, filterCtx, t)
}

// MCPToolFilterStatic is a static tool filter configuration using allowlists and blocklists.
type MCPToolFilterStatic struct {
	// Optional list of tool names to allow.
	// If not empty, only these tools will be available.
	AllowedToolNames []string

	// Optional list of tool names to exclude.
	BlockedToolNames []string
}

func (f MCPToolFilterStatic) FilterMCPTool(_ context.Context, _ MCPToolFilterContext, t *mcp.Tool) (bool, error) {
	return (len(f.AllowedToolNames) == 0 || slices.Contains(f.AllowedToolNames, t.Name)) &&
			!slices.Contains(f.BlockedToolNames, t.Name),
		nil
}

// CreateMCPStaticToolFilter creates a static tool filter from allowlist and blocklist parameters.
// It returns false when no filtering is specified.
func CreateMCPStaticToolFilter(allowedToolNames, blockedToolNames []string) (MCPToolFilterStatic, bool) {
	if len(allowedToolNames) == 0 && len(blockedToolNames) == 0 {
		return MCPToolFilterStatic{}, false
	}
	return MCPToolFilterStatic{
		AllowedToolNames: allowedToolNames,
		BlockedToolNames: blockedToolNames,
	}, true
}

// ApplyMCPToolFilter applies the tool filter to the list of tools.
// A filter error excludes the tool.
func ApplyMCPToolFilter(
	ctx context.Context,
	filterContext MCPToolFilterContext,
	toolFilter MCPToolFilter,
	tools []*mcp.Tool,
) []*mcp.Tool {
	if toolFilter == nil {
		return tools
	}

	var filteredTools []*mcp.Tool
	for _, tool := range tools {
		shouldInclude, err := toolFilter.FilterMCPTool(ctx, filterContext, tool)
		if err != nil {
			Logger().Error("Error applying tool filter",
				slog.String("toolName", tool.Name),
				slog.String("serverName", filterContext.ServerName),
				slog.String("error", err.Error()),
			)
			continue
		}
		if shouldInclude {
			filteredTools = append(filteredTools, tool)
		}
	}
	return filteredTools
}

type mcpUtil struct{}

// MCPUtil provides a set of utilities for interop between MCP tools and
// function tools.
func MCPUtil() mcpUtil { return mcpUtil{} }

// GetFunctionTools returns all function tools from a single MCP server, in
// the order the server lists them.
func (u mcpUtil) GetFunctionTools(ctx context.Context, server MCPServer) ([]FunctionTool, error) {
	mcpTools, err := server.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	functionTools := make([]FunctionTool, len(mcpTools))
	for i, mcpTool := range mcpTools {
		functionTools[i], err = u.ToFunctionTool(mcpTool, server)
		if err != nil {
			return nil, err
		}
	}
	return functionTools, nil
}

// ToFunctionTool converts an MCP tool to a function tool forwarding calls
// to the server.
func (u mcpUtil) ToFunctionTool(tool *mcp.Tool, server MCPServer) (FunctionTool, error) {
	schema, err := util.JSONMap(tool.InputSchema)
	if err != nil {
		return FunctionTool{}, fmt.Errorf("failed to convert MCP tool %s input schema to map: %w", tool.Name, err)
	}
	if schema == nil {
		schema = map[string]any{"type": "object"}
	}
	// MCP doesn't require the inputSchema to have "properties", but function
	// calling APIs do.
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}

	return FunctionTool{
		Name:             tool.Name,
		Description:      tool.Description,
		ParamsJSONSchema: schema,
		OnInvokeTool: func(ctx context.Context, arguments string) (any, error) {
			return u.InvokeMCPTool(ctx, server, tool, arguments)
		},
	}, nil
}

// InvokeMCPTool invokes an MCP tool and returns the result as a string.
func (mcpUtil) InvokeMCPTool(
	ctx context.Context,
	server MCPServer,
	tool *mcp.Tool,
	jsonInput string,
) (string, error) {
	var jsonData map[string]any
	if jsonInput != "" {
		err := json.Unmarshal([]byte(jsonInput), &jsonData)
		if err != nil {
			if DontLogToolData {
				Logger().Debug("Invalid JSON input", slog.String("toolName", tool.Name))
			} else {
				Logger().Debug("Invalid JSON input",
					slog.String("toolName", tool.Name),
					slog.String("jsonInput", jsonInput))
			}
			return "", ModelBehaviorErrorf("invalid JSON input for tool %s - %s: %w",
				tool.Name, jsonInput, err)
		}
	}

	if DontLogToolData {
		Logger().Debug("Invoking MCP tool", slog.String("toolName", tool.Name))
	} else {
		Logger().Debug("Invoking MCP tool",
			slog.String("toolName", tool.Name),
			slog.String("input", jsonInput))
	}

	result, err := server.CallTool(ctx, tool.Name, jsonData)
	if err != nil {
		Logger().Error("Error invoking MCP tool",
			slog.String("toolName", tool.Name),
			slog.String("error", err.Error()))
		return "", AgentsErrorf("error invoking MCP tool %s: %w", tool.Name, err)
	}

	toolOutput, err := mcpToolOutput(server, tool, result)
	if err != nil {
		return "", err
	}

	if DontLogToolData {
		Logger().Debug("MCP tool completed", slog.String("toolName", tool.Name))
	} else {
		Logger().Debug("MCP tool completed",
			slog.String("toolName", tool.Name),
			slog.Int("outputBytes", len(toolOutput)))
	}

	if result.IsError {
		return "", fmt.Errorf("MCP tool %s reported an error: %s", tool.Name, toolOutput)
	}
	return toolOutput, nil
}

func mcpToolOutput(server MCPServer, tool *mcp.Tool, result *mcp.CallToolResult) (string, error) {
	// If structured content is requested and available, use it exclusively
	if server.UseStructuredContent() && result.StructuredContent != nil {
		b, err := json.Marshal(result.StructuredContent)
		if err != nil {
			return "", fmt.Errorf("failed to JSON-marshal result structured content of MCP tool %s: %w", tool.Name, err)
		}
		return string(b), nil
	}

	// The MCP tool result is a list of content items, whereas tool outputs
	// are a single string. A single text item is used verbatim.
	switch len(result.Content) {
	case 0:
		// Empty content is a valid result (e.g., "no results found")
		return "[]", nil
	case 1:
		if text, ok := result.Content[0].(*mcp.TextContent); ok {
			return text.Text, nil
		}
		b, err := json.Marshal(result.Content[0])
		if err != nil {
			return "", fmt.Errorf("failed to JSON-marshal result content of MCP tool %s: %w", tool.Name, err)
		}
		return string(b), nil
	default:
		b, err := json.Marshal(result.Content)
		if err != nil {
			return "", fmt.Errorf("failed to JSON-marshal result content of MCP tool %s: %w", tool.Name, err)
		}
		return string(b), nil
	}
}
