package patch

import (
	"fmt"
	"strings"
)

// Hunk is a contiguous run of non-equal edits anchored at the 0-based line
// positions where the run begins: StartA in the original sequence, StartB in
// the target one. Both anchors refer to the coordinate spaces captured when
// the diff was computed, before any patching.
type Hunk struct {
	StartA int
	StartB int
	Edits  []Edit
}

// SpanA reports how many original lines the hunk consumes.
func (h Hunk) SpanA() int {
	n := 0
	for _, e := range h.Edits {
		if e.Op == OpDelete || e.Op == OpEqual {
			n++
		}
	}
	return n
}

// SpanB reports how many target lines the hunk produces.
func (h Hunk) SpanB() int {
	n := 0
	for _, e := range h.Edits {
		if e.Op == OpInsert || e.Op == OpEqual {
			n++
		}
	}
	return n
}

// Set is an ordered collection of hunks describing a complete diff between
// two line sequences. Hunks ascend by StartA and never overlap in original
// coordinates. A Set is immutable once created and serializes to JSON with
// exact round-trip fidelity.
type Set []Hunk

// Create diffs a against b and compresses the edit script into a Set. Equal
// lines separate hunks and are not stored; each maximal run of deletions and
// insertions becomes one hunk anchored at the line counters reached when the
// run began. Create(a, a) returns an empty Set.
func Create(a, b []string) Set {
	var (
		set          Set
		cur          Hunk
		open         bool
		lineA, lineB int
	)
	flush := func() {
		if open && len(cur.Edits) > 0 {
			set = append(set, cur)
		}
		open = false
		cur = Hunk{}
	}
	for _, e := range Diff(a, b) {
		switch e.Op {
		case OpEqual:
			flush()
			lineA++
			lineB++
		case OpDelete:
			if !open {
				cur = Hunk{StartA: lineA, StartB: lineB}
				open = true
			}
			cur.Edits = append(cur.Edits, e)
			lineA++
		case OpInsert:
			if !open {
				cur = Hunk{StartA: lineA, StartB: lineB}
				open = true
			}
			cur.Edits = append(cur.Edits, e)
			lineB++
		}
	}
	flush()
	return set
}

// Validate checks the structural invariants of the Set: every hunk has at
// least one operation, anchors are non-negative, and hunks ascend by StartA
// without overlapping the source extent of their predecessor.
func (s Set) Validate() error {
	nextA := 0
	for i, h := range s {
		if h.StartA < 0 || h.StartB < 0 {
			return fmt.Errorf("hunk %d: negative anchor (start_a=%d, start_b=%d)", i, h.StartA, h.StartB)
		}
		if len(h.Edits) == 0 {
			return fmt.Errorf("hunk %d: no operations", i)
		}
		if h.StartA < nextA {
			return fmt.Errorf("hunk %d: start_a=%d overlaps previous hunk ending at %d", i, h.StartA, nextA)
		}
		nextA = h.StartA + h.SpanA()
	}
	return nil
}

// Invert returns the Set that undoes s: applied to the patched result it
// reconstructs the original input. Anchors swap sides and every operation
// flips direction; equal operations are symmetric and pass through.
func (s Set) Invert() Set {
	if s == nil {
		return nil
	}
	inv := make(Set, len(s))
	for i, h := range s {
		edits := make([]Edit, len(h.Edits))
		for j, e := range h.Edits {
			switch e.Op {
			case OpDelete:
				edits[j] = Edit{Op: OpInsert, Content: e.Content}
			case OpInsert:
				edits[j] = Edit{Op: OpDelete, Content: e.Content}
			default:
				edits[j] = e
			}
		}
		inv[i] = Hunk{StartA: h.StartB, StartB: h.StartA, Edits: edits}
	}
	return inv
}

// Stats summarizes a Set for reporting.
type Stats struct {
	Hunks      int
	Insertions int
	Deletions  int
}

// Stats counts the hunks and the inserted and deleted lines in the Set.
func (s Set) Stats() Stats {
	st := Stats{Hunks: len(s)}
	for _, h := range s {
		for _, e := range h.Edits {
			switch e.Op {
			case OpInsert:
				st.Insertions++
			case OpDelete:
				st.Deletions++
			}
		}
	}
	return st
}

// SplitLines splits text into lines, each keeping its trailing newline. A
// final line without a newline is preserved as-is, so
// JoinLines(SplitLines(t)) returns t unchanged for every input.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// JoinLines reassembles lines produced by SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "")
}
