package patch

import "fmt"

// ConflictError reports a patch whose recorded offsets or content are
// inconsistent with the sequence being patched, which usually means the Set
// was built against a different base. It satisfies the error interface so it
// can be returned directly from Apply.
type ConflictError struct {
	Hunk    int    // index of the offending hunk within the set
	Op      Op     // operation that could not be applied, when known
	Index   int    // working-copy index the operation addressed
	Message string
}

func (e *ConflictError) Error() string {
	switch {
	case e.Op != "":
		return fmt.Sprintf("patch conflict: hunk %d op %q at index %d: %s", e.Hunk, e.Op, e.Index, e.Message)
	case e.Hunk > 0 || e.Index > 0:
		return fmt.Sprintf("patch conflict: hunk %d at index %d: %s", e.Hunk, e.Index, e.Message)
	default:
		return "patch conflict: " + e.Message
	}
}

// Apply replays the Set over a and returns the patched sequence. The input
// slice is never mutated; all work happens on a private copy.
//
// The working index for each hunk derives from its recorded anchors plus the
// net drift accumulated by earlier hunks (insertions minus deletions), so
// anchors recorded in original coordinates stay valid as the copy evolves.
// Within a hunk, "=" advances the cursor, "-" removes the line at the cursor
// without advancing, and "+" inserts its content at the cursor and advances.
//
// Apply is strict: an operation addressing a position outside the working
// copy, an anchor that disagrees with the accumulated drift, or a deletion
// whose recorded content does not match the line it removes all abort with a
// *ConflictError. For the permissive historical behavior see ApplyLenient.
//
// For any Set produced by Create(a, b), Apply(a, set) returns b exactly,
// including empty sequences and lines without trailing newlines.
func Apply(a []string, s Set) ([]string, error) {
	work := make([]string, len(a))
	copy(work, a)
	inserted, deleted := 0, 0
	for i, h := range s {
		idx := h.StartA + inserted - deleted
		if h.StartB != idx {
			return nil, &ConflictError{
				Hunk:    i,
				Index:   idx,
				Message: fmt.Sprintf("start_b=%d disagrees with drifted start_a=%d", h.StartB, idx),
			}
		}
		for _, e := range h.Edits {
			switch e.Op {
			case OpEqual:
				if idx >= len(work) {
					return nil, &ConflictError{Hunk: i, Op: e.Op, Index: idx, Message: "position past end of sequence"}
				}
				idx++
			case OpDelete:
				if idx < 0 || idx >= len(work) {
					return nil, &ConflictError{Hunk: i, Op: e.Op, Index: idx, Message: "position outside sequence"}
				}
				if work[idx] != e.Content {
					return nil, &ConflictError{
						Hunk:    i,
						Op:      e.Op,
						Index:   idx,
						Message: fmt.Sprintf("recorded %q, found %q", e.Content, work[idx]),
					}
				}
				work = splice(work, idx, 1, nil)
				deleted++
			case OpInsert:
				if idx < 0 || idx > len(work) {
					return nil, &ConflictError{Hunk: i, Op: e.Op, Index: idx, Message: "position outside sequence"}
				}
				work = splice(work, idx, 0, []string{e.Content})
				idx++
				inserted++
			default:
				return nil, &ConflictError{Hunk: i, Op: e.Op, Index: idx, Message: "unknown operation"}
			}
		}
	}
	return work, nil
}

// ApplyLenient replays the Set over a with the permissive semantics some
// callers depend on: deletions whose index falls outside the working copy are
// silently skipped, insertion indexes are clamped into range, and recorded
// content is never verified. Skipped operations do not contribute to the
// drift accumulators. Apply is the safe default; use this variant only when
// compatibility with the clamping behavior is required.
func ApplyLenient(a []string, s Set) []string {
	work := make([]string, len(a))
	copy(work, a)
	inserted, deleted := 0, 0
	for _, h := range s {
		idx := h.StartA + inserted - deleted
		for _, e := range h.Edits {
			switch e.Op {
			case OpEqual:
				idx++
			case OpDelete:
				if idx >= 0 && idx < len(work) {
					work = splice(work, idx, 1, nil)
					deleted++
				}
			case OpInsert:
				at := idx
				if at < 0 {
					at = 0
				}
				if at > len(work) {
					at = len(work)
				}
				work = splice(work, at, 0, []string{e.Content})
				idx++
				inserted++
			}
		}
	}
	return work
}

func splice(target []string, index, deleteCount int, replacement []string) []string {
	if deleteCount == 0 && len(replacement) == 0 {
		return target
	}
	result := make([]string, 0, len(target)-deleteCount+len(replacement))
	result = append(result, target[:index]...)
	result = append(result, replacement...)
	result = append(result, target[index+deleteCount:]...)
	return result
}
