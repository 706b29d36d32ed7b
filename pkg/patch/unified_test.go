package patch

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestUnifiedRendering(t *testing.T) {
	t.Parallel()

	a := []string{"line1\n", "line2\n", "line3\n"}
	b := []string{"line1\n", "modified\n", "line3\n"}
	set := Create(a, b)

	got := set.Unified("example.txt", a)
	want := "diff --git a/example.txt b/example.txt\n" +
		"--- a/example.txt\n" +
		"+++ b/example.txt\n" +
		"@@ -1,3 +1,3 @@\n" +
		" line1\n" +
		"-line2\n" +
		"+modified\n" +
		" line3\n"
	if got != want {
		t.Fatalf("unexpected rendering:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestUnifiedEmptySet(t *testing.T) {
	t.Parallel()

	if got := Set(nil).Unified("example.txt", []string{"x\n"}); got != "" {
		t.Fatalf("empty set should render empty, got %q", got)
	}
}

func TestUnifiedCreationAndDeletionLabels(t *testing.T) {
	t.Parallel()

	created := Create(nil, []string{"new\n"}).Unified("f.txt", nil)
	if !strings.Contains(created, "--- /dev/null\n") {
		t.Fatalf("file creation should diff from /dev/null:\n%s", created)
	}
	deleted := Create([]string{"old\n"}, nil).Unified("f.txt", []string{"old\n"})
	if !strings.Contains(deleted, "+++ /dev/null\n") {
		t.Fatalf("file deletion should diff to /dev/null:\n%s", deleted)
	}
}

func TestUnifiedSplitsDistantHunks(t *testing.T) {
	t.Parallel()

	a := randomLines(rand.New(rand.NewSource(1)), 20, 1000)
	b := append([]string(nil), a...)
	b[1] = "first change\n"
	b[15] = "second change\n"

	got := Create(a, b).Unified("f.txt", a)
	if n := strings.Count(got, "@@ "); n != 2 {
		t.Fatalf("changes 14 lines apart should render as two blocks, got %d:\n%s", n, got)
	}
}

func TestUnifiedMarksMissingFinalNewline(t *testing.T) {
	t.Parallel()

	a := []string{"x"}
	b := []string{"y"}
	got := Create(a, b).Unified("f.txt", a)
	if !strings.Contains(got, "\\ No newline at end of file\n") {
		t.Fatalf("expected a no-newline marker:\n%s", got)
	}
}

func TestFromUnifiedRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(43))
	for i := 0; i < 100; i++ {
		a := randomLines(rng, rng.Intn(60), 6)
		b := mutate(rng, a)
		text := Create(a, b).Unified("f.txt", a)

		parsed, err := FromUnified(strings.NewReader(text), a)
		if err != nil {
			t.Fatalf("iteration %d: FromUnified returned error: %v\n%s", i, err, text)
		}
		got, err := Apply(a, parsed)
		if err != nil {
			t.Fatalf("iteration %d: Apply returned error: %v", i, err)
		}
		if JoinLines(got) != JoinLines(b) {
			t.Fatalf("iteration %d: round trip mismatch:\n%s", i, text)
		}
	}
}

func TestFromUnifiedCreatesAndDeletes(t *testing.T) {
	t.Parallel()

	b := []string{"only\n", "lines\n"}
	text := Create(nil, b).Unified("f.txt", nil)
	parsed, err := FromUnified(strings.NewReader(text), nil)
	if err != nil {
		t.Fatalf("FromUnified returned error: %v\n%s", err, text)
	}
	got, err := Apply(nil, parsed)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if JoinLines(got) != JoinLines(b) {
		t.Fatalf("creation round trip mismatch: got %q", got)
	}

	a := []string{"only\n", "lines\n"}
	text = Create(a, nil).Unified("f.txt", a)
	parsed, err = FromUnified(strings.NewReader(text), a)
	if err != nil {
		t.Fatalf("FromUnified returned error: %v\n%s", err, text)
	}
	got, err = Apply(a, parsed)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("deletion round trip should empty the file, got %q", got)
	}
}

func TestFromUnifiedEmptyInput(t *testing.T) {
	t.Parallel()

	set, err := FromUnified(strings.NewReader(""), []string{"x\n"})
	if err != nil {
		t.Fatalf("FromUnified returned error: %v", err)
	}
	if set != nil {
		t.Fatalf("expected nil set, got %v", set)
	}
}

func TestFromUnifiedRejectsMultiFile(t *testing.T) {
	t.Parallel()

	one := Create([]string{"a\n"}, []string{"b\n"}).Unified("one.txt", []string{"a\n"})
	two := Create([]string{"c\n"}, []string{"d\n"}).Unified("two.txt", []string{"c\n"})
	_, err := FromUnified(strings.NewReader(one+two), []string{"a\n"})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestFromUnifiedConflict(t *testing.T) {
	t.Parallel()

	a := []string{"x\n", "y\n"}
	text := Create(a, []string{"x\n", "z\n"}).Unified("f.txt", a)
	_, err := FromUnified(strings.NewReader(text), []string{"completely\n", "different\n"})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if msg := conflict.Error(); !strings.Contains(msg, "does not apply") {
		t.Fatalf("unexpected message: %s", msg)
	}
}
