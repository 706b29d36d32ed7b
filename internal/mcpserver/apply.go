package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tandemhq/tandem/internal/journal"
	"github.com/tandemhq/tandem/internal/workspace"
	"github.com/tandemhq/tandem/pkg/patch"
)

// ApplyTool handles the apply_patch MCP tool. It applies a patch to a
// workspace file and records the change in the journal.
type ApplyTool struct {
	ws    *workspace.Workspace
	store *journal.Journal
}

// NewApplyTool creates an ApplyTool. A nil journal disables recording.
func NewApplyTool(ws *workspace.Workspace, store *journal.Journal) *ApplyTool {
	return &ApplyTool{ws: ws, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ApplyTool) Definition() mcp.Tool {
	return mcp.NewTool("apply_patch",
		mcp.WithDescription(
			"Apply a patch (as produced by create_patch) to a workspace file. "+
				"Application is strict: the file must still match the patch's recorded "+
				"positions and content, otherwise a conflict is reported and nothing is "+
				"written. Set lenient to true to clamp out-of-range operations instead.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path relative to the workspace root"),
		),
		mcp.WithString("patch",
			mcp.Required(),
			mcp.Description("Patch JSON from create_patch or invert_patch"),
		),
		mcp.WithString("note",
			mcp.Description("Optional note stored with the journal entry"),
		),
		mcp.WithBoolean("lenient",
			mcp.Description("Apply with clamping semantics instead of strict verification"),
		),
	)
}

// Handle processes the apply_patch tool call.
func (t *ApplyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}
	patchJSON := req.GetString("patch", "")
	if strings.TrimSpace(patchJSON) == "" {
		return mcp.NewToolResultError("'patch' is required"), nil
	}
	note := req.GetString("note", "")
	lenient := req.GetBool("lenient", t.ws.Lenient())

	set, err := patch.Decode([]byte(patchJSON))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := t.ws.WithLenient(lenient).Apply(ctx, []workspace.Plan{{Path: path, Set: set}})
	if err != nil {
		var conflict *patch.ConflictError
		if errors.As(err, &conflict) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"patch does not apply cleanly: %v. The file has changed since the patch "+
					"was created; regenerate it with create_patch.", conflict)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Patch left %s unchanged; nothing recorded.", path)), nil
	}

	var entryID int64
	if t.store != nil {
		entryID, err = t.store.Record(ctx, path, set, note)
		if err != nil {
			return nil, fmt.Errorf("recording journal entry: %w", err)
		}
	}

	stats := set.Stats()
	response := fmt.Sprintf("Applied patch to %s (status %s): %d hunks, %d insertions(+), %d deletions(-).",
		path, results[0].Status, stats.Hunks, stats.Insertions, stats.Deletions)
	if entryID != 0 {
		response += fmt.Sprintf(" Journal entry %d.", entryID)
	}
	return mcp.NewToolResultText(response), nil
}
