package tui

import (
	"fmt"
	"strings"

	"github.com/tandemhq/tandem/pkg/patch"
)

// contextLines is how many unchanged lines are shown around each hunk.
const contextLines = 3

type rowKind int

const (
	rowFileHeader rowKind = iota
	rowHunkHeader
	rowContext
	rowDelete
	rowInsert
)

// row is one display line of the review pane. Line numbers are 1-based; a
// nil number means the row has no counterpart on that side of the change.
type row struct {
	kind    rowKind
	oldLine *int
	newLine *int
	text    string
}

// buildRows flattens a file's pending patch into display rows: a summary
// header, then every hunk with up to contextLines unchanged lines around it.
// Delete rows carry the content recorded in the patch, so a stale patch still
// renders without touching lines beyond the base file.
func buildRows(f File) []row {
	s := f.Set.Stats()
	rows := []row{{
		kind: rowFileHeader,
		text: fmt.Sprintf("%s: %d hunks, %d insertions(+), %d deletions(-)", f.Path, s.Hunks, s.Insertions, s.Deletions),
	}}
	if len(f.Set) == 0 {
		rows = append(rows, row{kind: rowContext, text: "No changes."})
		return rows
	}

	emitted := 0 // base lines already rendered, as an index into f.Base
	for i, h := range f.Set {
		rows = append(rows, row{
			kind: rowHunkHeader,
			text: fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.StartA+1, h.SpanA(), h.StartB+1, h.SpanB()),
		})

		start := h.StartA - contextLines
		if start < emitted {
			start = emitted
		}
		shift := h.StartB - h.StartA
		for j := start; j < h.StartA && j < len(f.Base); j++ {
			rows = append(rows, contextRow(j+1, j+shift+1, f.Base[j]))
		}

		aLine, bLine := h.StartA, h.StartB
		for _, e := range h.Edits {
			switch e.Op {
			case patch.OpDelete:
				rows = append(rows, row{kind: rowDelete, oldLine: lineNo(aLine + 1), text: displayText(e.Content)})
				aLine++
			case patch.OpInsert:
				rows = append(rows, row{kind: rowInsert, newLine: lineNo(bLine + 1), text: displayText(e.Content)})
				bLine++
			}
		}

		// Trailing context stops where the next hunk begins so no base line
		// shows up twice.
		end := aLine + contextLines
		if i+1 < len(f.Set) && f.Set[i+1].StartA < end {
			end = f.Set[i+1].StartA
		}
		if end > len(f.Base) {
			end = len(f.Base)
		}
		shift = bLine - aLine
		for j := aLine; j < end; j++ {
			rows = append(rows, contextRow(j+1, j+shift+1, f.Base[j]))
		}
		emitted = end
	}
	return rows
}

func contextRow(oldLine, newLine int, content string) row {
	return row{kind: rowContext, oldLine: lineNo(oldLine), newLine: lineNo(newLine), text: displayText(content)}
}

func lineNo(n int) *int { return &n }

func displayText(s string) string { return strings.TrimSuffix(s, "\n") }
