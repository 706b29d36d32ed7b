package patch

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestCreateMiddleChange(t *testing.T) {
	t.Parallel()

	a := []string{"line1\n", "line2\n", "line3\n"}
	b := []string{"line1\n", "modified\n", "line3\n"}
	want := Set{{
		StartA: 1,
		StartB: 1,
		Edits: []Edit{
			{Op: OpDelete, Content: "line2\n"},
			{Op: OpInsert, Content: "modified\n"},
		},
	}}
	set := Create(a, b)
	if !reflect.DeepEqual(set, want) {
		t.Fatalf("unexpected set:\ngot  %+v\nwant %+v", set, want)
	}
	got, err := Apply(a, set)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if !reflect.DeepEqual(got, b) {
		t.Fatalf("apply mismatch: got %q want %q", got, b)
	}
}

func TestCreateInsertIntoEmpty(t *testing.T) {
	t.Parallel()

	b := []string{"new\n"}
	want := Set{{
		StartA: 0,
		StartB: 0,
		Edits:  []Edit{{Op: OpInsert, Content: "new\n"}},
	}}
	set := Create(nil, b)
	if !reflect.DeepEqual(set, want) {
		t.Fatalf("unexpected set:\ngot  %+v\nwant %+v", set, want)
	}
	got, err := Apply(nil, set)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if JoinLines(got) != JoinLines(b) {
		t.Fatalf("apply mismatch: got %q want %q", got, b)
	}
}

func TestCreateDeleteAll(t *testing.T) {
	t.Parallel()

	a := []string{"a\n", "b\n"}
	want := Set{{
		StartA: 0,
		StartB: 0,
		Edits: []Edit{
			{Op: OpDelete, Content: "a\n"},
			{Op: OpDelete, Content: "b\n"},
		},
	}}
	set := Create(a, nil)
	if !reflect.DeepEqual(set, want) {
		t.Fatalf("unexpected set:\ngot  %+v\nwant %+v", set, want)
	}
	got, err := Apply(a, set)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("apply mismatch: got %q want empty", got)
	}
}

func TestCreateEqualInputsIsEmpty(t *testing.T) {
	t.Parallel()

	a := []string{"same\n", "lines\n"}
	if set := Create(a, a); set != nil {
		t.Fatalf("expected empty set, got %+v", set)
	}
}

func TestCreateTwoHunksTracksAnchors(t *testing.T) {
	t.Parallel()

	a := []string{"a\n", "b\n", "c\n", "d\n", "e\n"}
	b := []string{"a\n", "X\n", "c\n", "Y\n", "Z\n", "e\n"}
	want := Set{
		{
			StartA: 1,
			StartB: 1,
			Edits: []Edit{
				{Op: OpDelete, Content: "b\n"},
				{Op: OpInsert, Content: "X\n"},
			},
		},
		{
			StartA: 3,
			StartB: 3,
			Edits: []Edit{
				{Op: OpDelete, Content: "d\n"},
				{Op: OpInsert, Content: "Y\n"},
				{Op: OpInsert, Content: "Z\n"},
			},
		},
	}
	set := Create(a, b)
	if !reflect.DeepEqual(set, want) {
		t.Fatalf("unexpected set:\ngot  %+v\nwant %+v", set, want)
	}
}

func TestCreateInvariants(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(17))
	for i := 0; i < 200; i++ {
		a := randomLines(rng, rng.Intn(80), 5)
		b := randomLines(rng, rng.Intn(80), 5)
		set := Create(a, b)
		if err := set.Validate(); err != nil {
			t.Fatalf("iteration %d: invalid set: %v", i, err)
		}
		end := 0
		for n, h := range set {
			if h.StartA < end {
				t.Fatalf("iteration %d: hunk %d overlaps previous (start_a=%d, prev end=%d)", i, n, h.StartA, end)
			}
			for _, e := range h.Edits {
				if e.Op == OpEqual {
					t.Fatalf("iteration %d: hunk %d contains an equal operation", i, n)
				}
			}
			end = h.StartA + h.SpanA()
		}
	}
}

func TestValidateRejectsMalformedSets(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		set  Set
	}{
		{
			name: "negative anchor",
			set:  Set{{StartA: -1, StartB: 0, Edits: []Edit{{Op: OpInsert, Content: "x\n"}}}},
		},
		{
			name: "no operations",
			set:  Set{{StartA: 0, StartB: 0}},
		},
		{
			name: "overlapping hunks",
			set: Set{
				{StartA: 0, StartB: 0, Edits: []Edit{{Op: OpDelete, Content: "a\n"}, {Op: OpDelete, Content: "b\n"}}},
				{StartA: 1, StartB: 0, Edits: []Edit{{Op: OpDelete, Content: "b\n"}}},
			},
		},
	}
	for _, tc := range cases {
		if err := tc.set.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestInvertRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(29))
	for i := 0; i < 150; i++ {
		a := randomLines(rng, rng.Intn(60), 5)
		b := randomLines(rng, rng.Intn(60), 5)
		set := Create(a, b)
		got, err := Apply(b, set.Invert())
		if err != nil {
			t.Fatalf("iteration %d: applying inverse failed: %v", i, err)
		}
		if JoinLines(got) != JoinLines(a) {
			t.Fatalf("iteration %d: inverse did not restore original", i)
		}
	}
	if Set(nil).Invert() != nil {
		t.Fatalf("inverting a nil set should stay nil")
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	a := []string{"a\n", "b\n", "c\n", "d\n", "e\n"}
	b := []string{"a\n", "X\n", "c\n", "Y\n", "Z\n", "e\n"}
	got := Create(a, b).Stats()
	want := Stats{Hunks: 2, Insertions: 3, Deletions: 2}
	if got != want {
		t.Fatalf("unexpected stats: got %+v want %+v", got, want)
	}
	if got := (Set)(nil).Stats(); got != (Stats{}) {
		t.Fatalf("unexpected empty stats: %+v", got)
	}
}

func TestSplitJoinLines(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want []string
	}{
		{text: "", want: nil},
		{text: "\n", want: []string{"\n"}},
		{text: "a\nb\n", want: []string{"a\n", "b\n"}},
		{text: "a\nb", want: []string{"a\n", "b"}},
		{text: "no newline", want: []string{"no newline"}},
	}
	for _, tc := range cases {
		got := SplitLines(tc.text)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("SplitLines(%q): got %q want %q", tc.text, got, tc.want)
		}
		if back := JoinLines(got); back != tc.text {
			t.Fatalf("JoinLines(SplitLines(%q)) = %q", tc.text, back)
		}
	}
}
