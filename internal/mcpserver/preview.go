package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tandemhq/tandem/internal/workspace"
	"github.com/tandemhq/tandem/pkg/patch"
)

// PreviewTool handles the preview_patch MCP tool. It renders a patch as
// a unified diff against the current file without writing anything.
type PreviewTool struct {
	ws *workspace.Workspace
}

// NewPreviewTool creates a PreviewTool bound to the workspace.
func NewPreviewTool(ws *workspace.Workspace) *PreviewTool {
	return &PreviewTool{ws: ws}
}

// Definition returns the MCP tool definition for registration.
func (t *PreviewTool) Definition() mcp.Tool {
	return mcp.NewTool("preview_patch",
		mcp.WithDescription(
			"Show what a patch would do as a unified diff, without modifying the file. "+
				"Also verifies the patch still applies to the file's current content, "+
				"so a clean preview means apply_patch will succeed.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path relative to the workspace root"),
		),
		mcp.WithString("patch",
			mcp.Required(),
			mcp.Description("Patch JSON from create_patch or invert_patch"),
		),
	)
}

// Handle processes the preview_patch tool call.
func (t *PreviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}
	patchJSON := req.GetString("patch", "")
	if strings.TrimSpace(patchJSON) == "" {
		return mcp.NewToolResultError("'patch' is required"), nil
	}

	set, err := patch.Decode([]byte(patchJSON))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(set) == 0 {
		return mcp.NewToolResultText("Patch is empty; nothing would change."), nil
	}

	base, _, err := t.ws.ReadLines(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := patch.Apply(base, set); err != nil {
		var conflict *patch.ConflictError
		if errors.As(err, &conflict) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"patch would not apply cleanly: %v. Regenerate it with create_patch "+
					"against the current file.", conflict)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	stats := set.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "%d hunks, %d insertions(+), %d deletions(-)\n\n", stats.Hunks, stats.Insertions, stats.Deletions)
	b.WriteString("```diff\n")
	b.WriteString(set.Unified(path, base))
	b.WriteString("```")
	return mcp.NewToolResultText(b.String()), nil
}
