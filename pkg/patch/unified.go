package patch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	gitdiff "github.com/bluekeyes/go-gitdiff/gitdiff"
)

// unifiedContext is the number of unchanged lines rendered around each run of
// changes in a unified diff.
const unifiedContext = 3

// Unified renders the Set as a git-style unified diff against the base lines
// it was computed from. Hunks whose context regions touch are merged into a
// single @@ block. The output is understood by standard patch tooling and by
// FromUnified; an empty Set renders as an empty string.
func (s Set) Unified(path string, a []string) string {
	if len(s) == 0 {
		return ""
	}

	var groups [][]Hunk
	var cur []Hunk
	endA := 0
	for _, h := range s {
		if len(cur) > 0 && h.StartA-endA > 2*unifiedContext {
			groups = append(groups, cur)
			cur = nil
		}
		cur = append(cur, h)
		endA = h.StartA + h.SpanA()
	}
	groups = append(groups, cur)

	st := s.Stats()
	oldLabel := "a/" + path
	if len(a) == 0 {
		oldLabel = "/dev/null"
	}
	newLabel := "b/" + path
	if len(a)+st.Insertions-st.Deletions == 0 {
		newLabel = "/dev/null"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)
	fmt.Fprintf(&b, "--- %s\n", oldLabel)
	fmt.Fprintf(&b, "+++ %s\n", newLabel)

	for _, g := range groups {
		ctxStart := g[0].StartA - unifiedContext
		if ctxStart < 0 {
			ctxStart = 0
		}
		lead := g[0].StartA - ctxStart
		gEndA := g[len(g)-1].StartA + g[len(g)-1].SpanA()
		trail := unifiedContext
		if gEndA+trail > len(a) {
			trail = len(a) - gEndA
		}

		oldCount := lead + trail
		newCount := lead + trail
		for i, h := range g {
			if i > 0 {
				gap := h.StartA - (g[i-1].StartA + g[i-1].SpanA())
				oldCount += gap
				newCount += gap
			}
			oldCount += h.SpanA()
			newCount += h.SpanB()
		}

		// Unified headers are 1-based; a zero-length side anchors at the
		// line before it instead.
		oldStart := ctxStart + 1
		if oldCount == 0 {
			oldStart = ctxStart
		}
		newCtxStart := g[0].StartB - lead
		newStart := newCtxStart + 1
		if newCount == 0 {
			newStart = newCtxStart
		}
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)

		pos := ctxStart
		for _, h := range g {
			for ; pos < h.StartA && pos < len(a); pos++ {
				writeDiffLine(&b, ' ', a[pos])
			}
			for _, e := range h.Edits {
				switch e.Op {
				case OpDelete:
					writeDiffLine(&b, '-', e.Content)
					pos++
				case OpInsert:
					writeDiffLine(&b, '+', e.Content)
				case OpEqual:
					var line string
					if pos < len(a) {
						line = a[pos]
					}
					writeDiffLine(&b, ' ', line)
					pos++
				}
			}
		}
		for ; pos < gEndA+trail; pos++ {
			writeDiffLine(&b, ' ', a[pos])
		}
	}
	return b.String()
}

func writeDiffLine(b *strings.Builder, prefix byte, line string) {
	b.WriteByte(prefix)
	b.WriteString(line)
	if !strings.HasSuffix(line, "\n") {
		b.WriteString("\n\\ No newline at end of file\n")
	}
}

// FromUnified converts a unified diff for a single file into a Set by
// applying it to the base lines and re-diffing base against the result.
// Going through the builder keeps every Set invariant intact no matter how
// the incoming diff was produced. A diff describing zero files yields an
// empty Set; one describing several files is rejected.
func FromUnified(r io.Reader, a []string) (Set, error) {
	files, _, err := gitdiff.Parse(r)
	if err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("parse unified diff: %v", err)}
	}
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, &ParseError{Message: fmt.Sprintf("unified diff describes %d files, want one", len(files))}
	}

	var buf bytes.Buffer
	if err := gitdiff.Apply(&buf, strings.NewReader(JoinLines(a)), files[0]); err != nil {
		var applyErr *gitdiff.ApplyError
		if errors.As(err, &applyErr) || errors.Is(err, &gitdiff.Conflict{}) {
			return nil, &ConflictError{Message: fmt.Sprintf("unified diff does not apply to the given base: %v", err)}
		}
		return nil, fmt.Errorf("apply unified diff: %w", err)
	}
	return Create(a, SplitLines(buf.String())), nil
}
