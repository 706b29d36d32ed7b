// Package mcpserver wires the patch tools into an MCP server.
//
// This is the composition root: it creates the server instance and
// registers the tools against the shared workspace and journal. No
// patch logic lives here.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/tandemhq/tandem/internal/journal"
	"github.com/tandemhq/tandem/internal/workspace"
)

// New creates the MCP server with all patch tools registered. The
// journal may be nil, in which case applies are not recorded.
func New(ws *workspace.Workspace, store *journal.Journal, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"tandem",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	createTool := NewCreateTool(ws)
	s.AddTool(createTool.Definition(), createTool.Handle)

	applyTool := NewApplyTool(ws, store)
	s.AddTool(applyTool.Definition(), applyTool.Handle)

	previewTool := NewPreviewTool(ws)
	s.AddTool(previewTool.Definition(), previewTool.Handle)

	invertTool := NewInvertTool()
	s.AddTool(invertTool.Definition(), invertTool.Handle)

	return s
}

// Serve runs the server over stdio until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// ServeSSE runs the server over HTTP server-sent events on addr, for
// clients that speak MCP over a network instead of a pipe.
func ServeSSE(s *server.MCPServer, addr string) error {
	return server.NewSSEServer(s).Start(addr)
}

// serverInstructions tells the client model how the patch tools fit
// together.
func serverInstructions() string {
	return `You have access to tandem, a line-oriented patch server.

## Workflow

1. Call create_patch with a file path and the complete updated content.
   The tool diffs the current file against your content and returns the
   patch as JSON. Files are addressed relative to the workspace root.
2. Inspect the change with preview_patch; it renders a unified diff of
   what would happen without touching the file.
3. Call apply_patch with the patch JSON to write the change. The file on
   disk must still match the patch's base; if it changed in between, the
   tool reports a conflict and nothing is written.
4. To undo, call invert_patch on the same JSON and apply the result.

## Patch format

A patch is a JSON array of hunks. Each hunk carries "start_a" (line
index in the original), "start_b" (line index in the result), and
"operations": objects with "op" ("=" keep, "-" delete, "+" insert) and
"content" (the line text for "-" and "+", null for "="). Line indexes
are zero-based; content strings keep their trailing newline.

Always regenerate a patch with create_patch after the file changes:
patches record exact positions and content, they do not fuzzy-match.`
}
