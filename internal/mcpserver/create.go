package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tandemhq/tandem/internal/workspace"
	"github.com/tandemhq/tandem/pkg/patch"
)

// CreateTool handles the create_patch MCP tool. It diffs a workspace
// file against caller-provided content and returns the patch as JSON.
type CreateTool struct {
	ws *workspace.Workspace
}

// NewCreateTool creates a CreateTool bound to the workspace.
func NewCreateTool(ws *workspace.Workspace) *CreateTool {
	return &CreateTool{ws: ws}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("create_patch",
		mcp.WithDescription(
			"Diff a workspace file against new content and return the patch as JSON. "+
				"The patch transforms the file's current lines into exactly the provided "+
				"content; feed it to apply_patch to write the change. A missing file "+
				"diffs against empty, so this also expresses file creation.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path relative to the workspace root, e.g. 'src/main.go'"),
		),
		mcp.WithString("updated",
			mcp.Required(),
			mcp.Description("The complete new file content. An empty string patches every line away."),
		),
	)
}

// Handle processes the create_patch tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}
	updated, err := req.RequireString("updated")
	if err != nil {
		return mcp.NewToolResultError("'updated' is required"), nil
	}

	base, _, err := t.ws.ReadLines(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	set := patch.Create(base, patch.SplitLines(updated))
	encoded, err := set.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding patch: %w", err)
	}
	return mcp.NewToolResultText(string(encoded)), nil
}
