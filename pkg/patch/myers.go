package patch

// Op identifies the kind of change described by a single edit operation. The
// values double as the wire codes used by the JSON patch format.
type Op string

const (
	// OpEqual marks a line present in both sequences.
	OpEqual Op = "="
	// OpDelete marks a line present only in the original sequence.
	OpDelete Op = "-"
	// OpInsert marks a line present only in the target sequence.
	OpInsert Op = "+"
)

// Edit is one step of an edit script: an operation plus the line it covers.
type Edit struct {
	Op      Op
	Content string
}

// Diff computes a minimal edit script that transforms a into b. Replaying the
// script over a reproduces b exactly: equal lines carry over while deletions
// and insertions rewrite the rest.
//
// The implementation is the linear-space divide-and-conquer form of Myers'
// algorithm: find the middle snake of the current box with a bidirectional
// frontier search, split the box on it, and repeat until every sub-box
// degenerates. Pending boxes live on an explicit work stack so heavily
// fragmented inputs cannot exhaust the call stack. Frontier ties are broken
// by a fixed rule, which makes the output deterministic: identical inputs
// always yield identical scripts.
func Diff(a, b []string) []Edit {
	d := newDiffer(a, b)
	return d.script(d.snakes(box{0, 0, len(a), len(b)}))
}

type differ struct {
	a, b []string
	// Frontier arrays shared by every middle-snake search; sized for the
	// root box, re-seeded per call.
	vf, vb []int
	edits  []Edit
}

func newDiffer(a, b []string) *differ {
	max := (len(a) + len(b) + 1) / 2
	return &differ{
		a:  a,
		b:  b,
		vf: make([]int, 2*max+1),
		vb: make([]int, 2*max+1),
	}
}

// box is a rectangular sub-problem covering a[left:right) and b[top:bottom).
type box struct {
	left, top, right, bottom int
}

func (bx box) width() int  { return bx.right - bx.left }
func (bx box) height() int { return bx.bottom - bx.top }
func (bx box) size() int   { return bx.width() + bx.height() }
func (bx box) delta() int  { return bx.width() - bx.height() }

type point struct {
	x, y int
}

// snake records a run of equal lines along one diagonal of the edit graph,
// plus the points at which the enclosing box splits. pre and post absorb the
// single non-diagonal step adjoining the run (before it for the forward
// search, after it for the reverse one), so both sub-boxes strictly shrink
// and the divide step always terminates.
type snake struct {
	start, end point // the equal run
	pre, post  point // left sub-box ends at pre, right sub-box starts at post
}

// snakes collects the middle snakes of root and all its sub-boxes, ordered
// along the edit path. The traversal is iterative: each box pushes its right
// half, an emit marker for its own snake, and its left half, so popping
// yields an in-order walk.
func (d *differ) snakes(root box) []snake {
	type frame struct {
		bx   box
		s    snake
		emit bool
	}
	var found []snake
	stack := []frame{{bx: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.emit {
			if f.s.start != f.s.end {
				found = append(found, f.s)
			}
			continue
		}
		s, ok := d.middleSnake(f.bx)
		if !ok {
			continue
		}
		stack = append(stack,
			frame{bx: box{s.post.x, s.post.y, f.bx.right, f.bx.bottom}},
			frame{s: s, emit: true},
			frame{bx: box{f.bx.left, f.bx.top, s.pre.x, s.pre.y}},
		)
	}
	return found
}

// middleSnake runs the bidirectional frontier search over bx. It reports
// false for degenerate boxes (zero width or height); those contribute pure
// insertion or deletion runs during reconstruction and need no snake.
func (d *differ) middleSnake(bx box) (snake, bool) {
	if bx.width() == 0 || bx.height() == 0 {
		return snake{}, false
	}
	max := (bx.size() + 1) / 2
	delta := bx.delta()
	// Diagonal indexes are offset so negative diagonals stay in range.
	offset := max
	vf := d.vf[:2*max+1]
	vb := d.vb[:2*max+1]
	vf[offset+1] = bx.left
	vb[offset+1] = bx.bottom
	for dist := 0; dist <= max; dist++ {
		if s, ok := d.forward(bx, vf, vb, offset, delta, dist); ok {
			return s, true
		}
		if s, ok := d.reverse(bx, vf, vb, offset, delta, dist); ok {
			return s, true
		}
	}
	return snake{}, false
}

// forward advances the top-left frontier by one edit distance step and
// reports a middle snake when it meets the reverse frontier. The branch
// choice uses a strict less-than so ties always fall to the rightward move.
func (d *differ) forward(bx box, vf, vb []int, offset, delta, dist int) (snake, bool) {
	for k := -dist; k <= dist; k += 2 {
		var px, x int
		if k == -dist || (k != dist && vf[offset+k-1] < vf[offset+k+1]) {
			px = vf[offset+k+1]
			x = px
		} else {
			px = vf[offset+k-1]
			x = px + 1
		}
		y := bx.top + (x - bx.left) - k
		py := y
		if dist > 0 && x == px {
			py = y - 1
		}
		sx, sy := x, y
		for x < bx.right && y < bx.bottom && d.a[x] == d.b[y] {
			x++
			y++
		}
		vf[offset+k] = x
		c := k - delta
		if delta%2 != 0 && -(dist-1) <= c && c <= dist-1 && y >= vb[offset+c] {
			return snake{
				start: point{sx, sy},
				end:   point{x, y},
				pre:   point{px, py},
				post:  point{x, y},
			}, true
		}
	}
	return snake{}, false
}

// reverse advances the bottom-right frontier; the mirror of forward, keyed by
// the reverse diagonal c = k - delta and tracking furthest-reached y values.
func (d *differ) reverse(bx box, vf, vb []int, offset, delta, dist int) (snake, bool) {
	for c := -dist; c <= dist; c += 2 {
		var py, y int
		if c == -dist || (c != dist && vb[offset+c-1] > vb[offset+c+1]) {
			py = vb[offset+c+1]
			y = py
		} else {
			py = vb[offset+c-1]
			y = py - 1
		}
		k := c + delta
		x := bx.left + (y - bx.top) + k
		px := x
		if dist > 0 && y == py {
			px = x + 1
		}
		ex, ey := x, y
		for x > bx.left && y > bx.top && d.a[x-1] == d.b[y-1] {
			x--
			y--
		}
		vb[offset+c] = y
		if delta%2 == 0 && -dist <= k && k <= dist && x <= vf[offset+k] {
			return snake{
				start: point{x, y},
				end:   point{ex, ey},
				pre:   point{x, y},
				post:  point{px, py},
			}, true
		}
	}
	return snake{}, false
}

// script reconstructs the full edit script from the ordered snakes by walking
// the gaps between them. Lines spanned by a snake are equal by construction.
func (d *differ) script(snakes []snake) []Edit {
	d.edits = make([]Edit, 0, len(d.a)+len(d.b))
	x, y := 0, 0
	for _, s := range snakes {
		x, y = d.walk(x, y, s.start.x, s.start.y)
		for x < s.end.x {
			d.edits = append(d.edits, Edit{Op: OpEqual, Content: d.a[x]})
			x++
			y++
		}
	}
	d.walk(x, y, len(d.a), len(d.b))
	return d.edits
}

// walk emits the edits covering the gap from (x, y) to (tx, ty): paired
// positions first, one delete followed by one insert each, then whatever
// remains on a single side.
func (d *differ) walk(x, y, tx, ty int) (int, int) {
	for x < tx && y < ty {
		if d.a[x] == d.b[y] {
			d.edits = append(d.edits, Edit{Op: OpEqual, Content: d.a[x]})
		} else {
			d.edits = append(d.edits,
				Edit{Op: OpDelete, Content: d.a[x]},
				Edit{Op: OpInsert, Content: d.b[y]},
			)
		}
		x++
		y++
	}
	for ; x < tx; x++ {
		d.edits = append(d.edits, Edit{Op: OpDelete, Content: d.a[x]})
	}
	for ; y < ty; y++ {
		d.edits = append(d.edits, Edit{Op: OpInsert, Content: d.b[y]})
	}
	return x, y
}
