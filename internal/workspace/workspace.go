// Package workspace stages patch application against files on disk.
//
// All plans in a call are staged in memory first; nothing is written
// until every patch has applied cleanly, so a conflict in the third
// file leaves the first two untouched.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tandemhq/tandem/pkg/patch"
)

// Plan pairs a workspace-relative file path with the patch to apply.
type Plan struct {
	Path string
	Set  patch.Set
}

// Result reports what happened to one file: "A" added, "M" modified,
// "D" deleted.
type Result struct {
	Status string
	Path   string
}

// Workspace applies patches beneath a single root directory. Paths are
// always resolved relative to the root and may not escape it.
type Workspace struct {
	root    string
	lenient bool
}

// New resolves root and returns a workspace rooted there. When lenient
// is set, patches apply with clamping semantics instead of strict
// verification.
func New(root string, lenient bool) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root %s: %w", root, err)
	}
	return &Workspace{root: abs, lenient: lenient}, nil
}

// Root returns the absolute root directory.
func (ws *Workspace) Root() string { return ws.root }

// Lenient reports whether patches apply with clamping semantics.
func (ws *Workspace) Lenient() bool { return ws.lenient }

// WithLenient returns a copy of the workspace with the apply mode set.
func (ws *Workspace) WithLenient(lenient bool) *Workspace {
	return &Workspace{root: ws.root, lenient: lenient}
}

// ReadLines loads a file with line endings normalized to LF and
// terminators kept attached to their lines. The second return reports
// whether the file exists.
func (ws *Workspace) ReadLines(path string) ([]string, bool, error) {
	abs, rel, err := ws.resolve(path)
	if err != nil {
		return nil, false, err
	}
	st, err := load(abs, rel)
	if err != nil {
		return nil, false, err
	}
	return st.lines, st.existed, nil
}

// Apply stages every plan in memory and writes only when all of them
// applied cleanly. Plans addressing the same file see each other's
// staged lines. Results come back in first-touch order; files whose
// content did not change produce no result.
func (ws *Workspace) Apply(ctx context.Context, plans []Plan) ([]Result, error) {
	staged := make(map[string]*fileState)
	var order []*fileState

	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs, rel, err := ws.resolve(plan.Path)
		if err != nil {
			return nil, err
		}
		st, ok := staged[abs]
		if !ok {
			st, err = load(abs, rel)
			if err != nil {
				return nil, err
			}
			staged[abs] = st
			order = append(order, st)
		}
		updated, err := ws.applySet(st.lines, plan.Set)
		if err != nil {
			return nil, fmt.Errorf("workspace: patch %s: %w", rel, err)
		}
		st.lines = updated
	}

	// No ctx checks past this point; a staged commit runs to completion.
	results := make([]Result, 0, len(order))
	for _, st := range order {
		res, err := commit(st)
		if err != nil {
			return nil, err
		}
		if res != nil {
			results = append(results, *res)
		}
	}
	return results, nil
}

func (ws *Workspace) applySet(lines []string, set patch.Set) ([]string, error) {
	if ws.lenient {
		return patch.ApplyLenient(lines, set), nil
	}
	return patch.Apply(lines, set)
}

func (ws *Workspace) resolve(path string) (abs, rel string, err error) {
	rel = strings.TrimSpace(path)
	if rel == "" {
		return "", "", errors.New("workspace: empty file path")
	}
	if filepath.IsAbs(rel) {
		return "", "", fmt.Errorf("workspace: %s: absolute paths are not allowed", rel)
	}
	rel = filepath.Clean(rel)
	abs = filepath.Join(ws.root, rel)
	if abs != ws.root && !strings.HasPrefix(abs, ws.root+string(filepath.Separator)) {
		return "", "", fmt.Errorf("workspace: %s escapes the workspace root", rel)
	}
	return abs, rel, nil
}

type fileState struct {
	abs      string
	rel      string
	lines    []string
	original string
	existed  bool
	mode     fs.FileMode
}

func load(abs, rel string) (*fileState, error) {
	info, err := os.Stat(abs)
	switch {
	case err == nil:
		if info.IsDir() {
			return nil, fmt.Errorf("workspace: %s is a directory", rel)
		}
		content, readErr := os.ReadFile(abs)
		if readErr != nil {
			return nil, fmt.Errorf("workspace: read %s: %w", rel, readErr)
		}
		normalized := strings.ReplaceAll(string(content), "\r\n", "\n")
		normalized = strings.ReplaceAll(normalized, "\r", "\n")
		return &fileState{
			abs:      abs,
			rel:      rel,
			lines:    patch.SplitLines(normalized),
			original: normalized,
			existed:  true,
			mode:     info.Mode(),
		}, nil
	case errors.Is(err, fs.ErrNotExist):
		return &fileState{abs: abs, rel: rel}, nil
	default:
		return nil, fmt.Errorf("workspace: stat %s: %w", rel, err)
	}
}

func commit(st *fileState) (*Result, error) {
	content := patch.JoinLines(st.lines)
	switch {
	case st.existed && content == st.original:
		return nil, nil
	case st.existed && content == "":
		if err := os.Remove(st.abs); err != nil {
			return nil, fmt.Errorf("workspace: delete %s: %w", st.rel, err)
		}
		return &Result{Status: "D", Path: st.rel}, nil
	case content == "":
		// A missing file patched into nothing stays missing.
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(st.abs), 0o755); err != nil {
		return nil, fmt.Errorf("workspace: create directory for %s: %w", st.rel, err)
	}
	perm := st.mode & fs.ModePerm
	if perm == 0 {
		perm = 0o644
	}
	if err := os.WriteFile(st.abs, []byte(content), perm); err != nil {
		return nil, fmt.Errorf("workspace: write %s: %w", st.rel, err)
	}
	status := "M"
	if !st.existed {
		status = "A"
	}
	return &Result{Status: status, Path: st.rel}, nil
}
