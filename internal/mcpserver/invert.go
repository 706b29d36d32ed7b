package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tandemhq/tandem/pkg/patch"
)

// InvertTool handles the invert_patch MCP tool. It is pure patch
// algebra and touches no files.
type InvertTool struct{}

// NewInvertTool creates an InvertTool.
func NewInvertTool() *InvertTool {
	return &InvertTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *InvertTool) Definition() mcp.Tool {
	return mcp.NewTool("invert_patch",
		mcp.WithDescription(
			"Invert a patch so it undoes the original change. Applying the returned "+
				"patch to a file that the original was applied to restores the file's "+
				"previous content exactly.",
		),
		mcp.WithString("patch",
			mcp.Required(),
			mcp.Description("Patch JSON from create_patch or a journal entry"),
		),
	)
}

// Handle processes the invert_patch tool call.
func (t *InvertTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patchJSON := req.GetString("patch", "")
	if strings.TrimSpace(patchJSON) == "" {
		return mcp.NewToolResultError("'patch' is required"), nil
	}

	set, err := patch.Decode([]byte(patchJSON))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	encoded, err := set.Invert().Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding inverted patch: %w", err)
	}
	return mcp.NewToolResultText(string(encoded)), nil
}
