package patch

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// replay validates that script is a well-formed edit script over a: equals
// and deletes must name the line they consume, and the whole of a must be
// consumed. It returns the sequence the script produces.
func replay(t *testing.T, a []string, script []Edit) []string {
	t.Helper()
	var out []string
	i := 0
	for n, e := range script {
		switch e.Op {
		case OpEqual:
			if i >= len(a) || a[i] != e.Content {
				t.Fatalf("edit %d: equal op %q does not match a[%d]", n, e.Content, i)
			}
			out = append(out, a[i])
			i++
		case OpDelete:
			if i >= len(a) || a[i] != e.Content {
				t.Fatalf("edit %d: delete op %q does not match a[%d]", n, e.Content, i)
			}
			i++
		case OpInsert:
			out = append(out, e.Content)
		default:
			t.Fatalf("edit %d: unknown op %q", n, e.Op)
		}
	}
	if i != len(a) {
		t.Fatalf("script consumed %d of %d input lines", i, len(a))
	}
	return out
}

func nonEqualCount(script []Edit) int {
	n := 0
	for _, e := range script {
		if e.Op != OpEqual {
			n++
		}
	}
	return n
}

// editDistanceLCS is the naive O(N*M) dynamic-programming reference: the
// minimal number of insertions plus deletions is N + M - 2*LCS.
func editDistanceLCS(a, b []string) int {
	n, m := len(a), len(b)
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return n + m - 2*prev[m]
}

func randomLines(rng *rand.Rand, n, alphabet int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line-%d\n", rng.Intn(alphabet))
	}
	return lines
}

func TestDiffEmptyInputs(t *testing.T) {
	t.Parallel()

	if got := Diff(nil, nil); len(got) != 0 {
		t.Fatalf("diff of two empty sequences produced %d edits", len(got))
	}

	b := []string{"one\n", "two\n"}
	script := Diff(nil, b)
	if len(script) != 2 {
		t.Fatalf("unexpected script length: got %d want 2", len(script))
	}
	for i, e := range script {
		if e.Op != OpInsert || e.Content != b[i] {
			t.Fatalf("edit %d: got %+v, want insert of %q", i, e, b[i])
		}
	}

	a := []string{"one\n", "two\n", "three\n"}
	script = Diff(a, nil)
	if len(script) != 3 {
		t.Fatalf("unexpected script length: got %d want 3", len(script))
	}
	for i, e := range script {
		if e.Op != OpDelete || e.Content != a[i] {
			t.Fatalf("edit %d: got %+v, want delete of %q", i, e, a[i])
		}
	}
}

func TestDiffEqualInputs(t *testing.T) {
	t.Parallel()

	a := []string{"alpha\n", "beta\n", "gamma\n"}
	script := Diff(a, a)
	if len(script) != len(a) {
		t.Fatalf("unexpected script length: got %d want %d", len(script), len(a))
	}
	for i, e := range script {
		if e.Op != OpEqual || e.Content != a[i] {
			t.Fatalf("edit %d: got %+v, want equal of %q", i, e, a[i])
		}
	}
}

func TestDiffMiddleReplacement(t *testing.T) {
	t.Parallel()

	a := []string{"a\n", "b\n", "c\n"}
	b := []string{"a\n", "x\n", "c\n"}
	want := []Edit{
		{Op: OpEqual, Content: "a\n"},
		{Op: OpDelete, Content: "b\n"},
		{Op: OpInsert, Content: "x\n"},
		{Op: OpEqual, Content: "c\n"},
	}
	if got := Diff(a, b); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected script:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestDiffPairedReplacementOrder(t *testing.T) {
	t.Parallel()

	// A paired position always emits the delete before the insert.
	got := Diff([]string{"x\n"}, []string{"y\n"})
	want := []Edit{
		{Op: OpDelete, Content: "x\n"},
		{Op: OpInsert, Content: "y\n"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected script:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestDiffProducesValidScripts(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 250; i++ {
		a := randomLines(rng, rng.Intn(60), 5)
		b := randomLines(rng, rng.Intn(60), 5)
		script := Diff(a, b)
		got := replay(t, a, script)
		if JoinLines(got) != JoinLines(b) {
			t.Fatalf("iteration %d: replayed script does not reproduce target\na: %q\nb: %q", i, a, b)
		}
	}
}

func TestDiffDeterministic(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		a := randomLines(rng, rng.Intn(40), 4)
		b := randomLines(rng, rng.Intn(40), 4)
		first := Diff(a, b)
		second := Diff(a, b)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("iteration %d: identical inputs produced different scripts", i)
		}
	}
}

func TestDiffMinimalityAgainstLCSReference(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(23))
	for i := 0; i < 300; i++ {
		a := randomLines(rng, rng.Intn(31), 4)
		b := randomLines(rng, rng.Intn(31), 4)
		got := nonEqualCount(Diff(a, b))
		want := editDistanceLCS(a, b)
		if got > want {
			t.Fatalf("iteration %d: %d non-equal edits, reference needs %d\na: %q\nb: %q", i, got, want, a, b)
		}
	}
}

func TestDiffMinimalityAgainstDiffMatchPatch(t *testing.T) {
	t.Parallel()

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	rng := rand.New(rand.NewSource(31))
	for i := 0; i < 200; i++ {
		a := randomLines(rng, rng.Intn(31), 4)
		b := randomLines(rng, rng.Intn(31), 4)
		got := nonEqualCount(Diff(a, b))

		c1, c2, _ := dmp.DiffLinesToChars(JoinLines(a), JoinLines(b))
		ref := 0
		for _, d := range dmp.DiffMain(c1, c2, false) {
			if d.Type != diffmatchpatch.DiffEqual {
				ref += utf8.RuneCountInString(d.Text)
			}
		}
		if got > ref {
			t.Fatalf("iteration %d: %d non-equal edits, diffmatchpatch needs %d\na: %q\nb: %q", i, got, ref, a, b)
		}
	}
}

func TestDiffLargeDisjointInputs(t *testing.T) {
	t.Parallel()

	// Fully disjoint sequences force the deepest divide-and-conquer
	// splitting; the explicit work stack must handle them without issue.
	a := make([]string, 400)
	b := make([]string, 400)
	for i := range a {
		a[i] = fmt.Sprintf("old-%d\n", i)
		b[i] = fmt.Sprintf("new-%d\n", i)
	}
	script := Diff(a, b)
	if got := replay(t, a, script); JoinLines(got) != JoinLines(b) {
		t.Fatalf("replayed script does not reproduce target")
	}
	if got, want := nonEqualCount(script), 800; got != want {
		t.Fatalf("unexpected edit count: got %d want %d", got, want)
	}
}
