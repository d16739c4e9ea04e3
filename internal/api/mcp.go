package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalmbach/toolrack/internal/export"
	"github.com/kalmbach/toolrack/internal/search"
	"github.com/kalmbach/toolrack/internal/storage"
	"github.com/kalmbach/toolrack/internal/tools"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store  *storage.Store
	Tools  *tools.Service
	Search *search.Service
	Export *export.Service
}

// NewMCPServer creates an MCP server exposing the tool inventory to
// assistants: profile lookup, tool search, and setup sheets.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"toolrack",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("toolrack - moulder tool-profile inventory: profiles, tool sets, head assignments, and setup sheets."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("find_tools",
			mcp.WithDescription("Search the tool inventory by status, position, type, code prefix, or profile."),
			mcp.WithString("status", mcp.Description("Filter by condition: ready, in_service, or worn")),
			mcp.WithString("position", mcp.Description("Filter by cutting position: Bottom, Top, Right, Left")),
			mcp.WithString("type", mcp.Description("Filter by tool type: Straight or Profile")),
			mcp.WithString("code", mcp.Description("Filter by tool code prefix")),
			mcp.WithNumber("profile_id", mcp.Description("Restrict to one profile")),
		),
		mcpFindTools(deps),
	)

	s.AddTool(
		mcp.NewTool("find_profiles",
			mcp.WithDescription("Search profiles by name substring or by text inside their attached drawings."),
			mcp.WithString("query", mcp.Description("Search text"), mcp.Required()),
			mcp.WithBoolean("drawings", mcp.Description("Search extracted drawing text instead of profile names")),
		),
		mcpFindProfiles(deps),
	)

	s.AddTool(
		mcp.NewTool("tool_set",
			mcp.WithDescription("List all tools in the set of the given 6-digit tool code."),
			mcp.WithString("code", mcp.Description("Any tool code from the set"), mcp.Required()),
		),
		mcpToolSet(deps),
	)

	s.AddTool(
		mcp.NewTool("setup_sheet",
			mcp.WithDescription("Render the machine setup sheet for a profile: heads, mounted tools, and run parameters."),
			mcp.WithNumber("profile_id", mcp.Description("Profile ID"), mcp.Required()),
		),
		mcpSetupSheet(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"toolrack://profiles",
			"Profiles",
			mcp.WithResourceDescription("All moulder profiles as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfiles(deps),
	)

	return s
}

func mcpFindTools(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		f := storage.ToolFilter{
			Status:     req.GetString("status", ""),
			Position:   req.GetString("position", ""),
			Type:       req.GetString("type", ""),
			CodePrefix: req.GetString("code", ""),
			ProfileID:  int64(req.GetInt("profile_id", 0)),
		}

		list, err := deps.Search.CollectTools(f)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if len(list) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(list)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpFindProfiles(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		var list []storage.Profile
		if req.GetBool("drawings", false) {
			list, err = deps.Search.Drawings(query)
		} else {
			list, err = deps.Search.Profiles(query)
		}
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if len(list) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(list)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpToolSet(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := req.RequireString("code")
		if err != nil {
			return mcpError("code is required"), nil
		}

		set, err := deps.Tools.ListSet(code)
		if err != nil {
			return mcpError(fmt.Sprintf("listing set: %v", err)), nil
		}

		b, err := json.Marshal(set)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSetupSheet(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		profileID, err := req.RequireInt("profile_id")
		if err != nil {
			return mcpError("profile_id is required"), nil
		}

		var sb strings.Builder
		if err := deps.Export.Export(int64(profileID), export.FormatText, &sb); err != nil {
			return mcpError(fmt.Sprintf("rendering setup sheet: %v", err)), nil
		}
		return mcpText(sb.String()), nil
	}
}

func mcpResourceProfiles(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := deps.Store.ListProfiles()
		if err != nil {
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}

		b, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profiles: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
