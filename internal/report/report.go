// Package report turns patch activity into markdown and renders it for
// the terminal.
package report

import (
	"fmt"
	"strings"

	glam "github.com/charmbracelet/glamour"

	"github.com/tandemhq/tandem/internal/journal"
	"github.com/tandemhq/tandem/pkg/patch"
)

// File is one patched file with enough context to show its full diff.
type File struct {
	Path string
	Base []string
	Set  patch.Set
}

// Markdown builds a report over the given files: an overall change
// count followed by one unified diff section per file.
func Markdown(files []File) string {
	var b strings.Builder
	b.WriteString("# Patch report\n\n")

	var total patch.Stats
	for _, f := range files {
		s := f.Set.Stats()
		total.Hunks += s.Hunks
		total.Insertions += s.Insertions
		total.Deletions += s.Deletions
	}
	fmt.Fprintf(&b, "%d files changed, %d insertions(+), %d deletions(-)\n",
		len(files), total.Insertions, total.Deletions)

	for _, f := range files {
		fmt.Fprintf(&b, "\n## %s\n\n", f.Path)
		if len(f.Set) == 0 {
			b.WriteString("No changes.\n")
			continue
		}
		fmt.Fprintf(&b, "%s\n\n", statsLine(f.Set.Stats()))
		b.WriteString("```diff\n")
		b.WriteString(f.Set.Unified(f.Path, f.Base))
		b.WriteString("```\n")
	}
	return b.String()
}

// SetMarkdown renders a bare patch set under the given name. With no base
// content available, hunks are shown as their raw operations.
func SetMarkdown(name string, set patch.Set) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Patch %s\n\n", name)
	if len(set) == 0 {
		b.WriteString("No changes.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%s\n", statsLine(set.Stats()))
	writeHunkBlocks(&b, set)
	return b.String()
}

// EntryMarkdown renders one journal entry. The original file content is
// not stored, so hunks are shown as their raw operations rather than a
// contextual diff.
func EntryMarkdown(e journal.Entry) (string, error) {
	set, err := e.Set()
	if err != nil {
		return "", fmt.Errorf("report: decode entry %d: %w", e.ID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Journal entry %d\n\n", e.ID)
	fmt.Fprintf(&b, "- path: `%s`\n", e.Path)
	fmt.Fprintf(&b, "- recorded: %s\n", e.CreatedAt)
	if e.Note != "" {
		fmt.Fprintf(&b, "- note: %s\n", e.Note)
	}
	fmt.Fprintf(&b, "- %s\n", statsLine(set.Stats()))
	writeHunkBlocks(&b, set)
	return b.String(), nil
}

func writeHunkBlocks(b *strings.Builder, set patch.Set) {
	for i, h := range set {
		fmt.Fprintf(b, "\n```diff\n@@ hunk %d: line %d becomes line %d @@\n", i+1, h.StartA+1, h.StartB+1)
		for _, ed := range h.Edits {
			switch ed.Op {
			case patch.OpDelete:
				b.WriteString("-" + strings.TrimSuffix(ed.Content, "\n") + "\n")
			case patch.OpInsert:
				b.WriteString("+" + strings.TrimSuffix(ed.Content, "\n") + "\n")
			}
		}
		b.WriteString("```\n")
	}
}

// LogMarkdown renders journal entries as a table, newest first.
func LogMarkdown(entries []journal.Entry) string {
	var b strings.Builder
	b.WriteString("# Patch journal\n\n")
	if len(entries) == 0 {
		b.WriteString("No entries recorded.\n")
		return b.String()
	}
	b.WriteString("| id | recorded | path | hunks | + | - | note |\n")
	b.WriteString("| ---: | --- | --- | ---: | ---: | ---: | --- |\n")
	for _, e := range entries {
		note := strings.ReplaceAll(e.Note, "|", "\\|")
		fmt.Fprintf(&b, "| %d | %s | %s | %d | %d | %d | %s |\n",
			e.ID, e.CreatedAt, e.Path, e.Hunks, e.Insertions, e.Deletions, note)
	}
	return b.String()
}

// Render turns markdown into styled terminal output wrapped at width.
func Render(markdown string, width int) (string, error) {
	if width < 10 {
		width = 10
	}
	r, err := glam.NewTermRenderer(
		glam.WithStylePath("dark"),
		glam.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("report: build renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("report: render: %w", err)
	}
	return out, nil
}

func statsLine(s patch.Stats) string {
	return fmt.Sprintf("%d hunks, %d insertions(+), %d deletions(-)", s.Hunks, s.Insertions, s.Deletions)
}
