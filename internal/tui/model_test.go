package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tandemhq/tandem/pkg/patch"
)

func reviewFixture() []File {
	return []File{
		{
			Path: "alpha.txt",
			Base: []string{"one\n", "two\n"},
			Set: patch.Set{{
				StartA: 1,
				StartB: 1,
				Edits: []patch.Edit{
					{Op: patch.OpDelete, Content: "two\n"},
					{Op: patch.OpInsert, Content: "2\n"},
				},
			}},
		},
		{
			Path: "beta.txt",
			Set: patch.Set{{
				StartA: 0,
				StartB: 0,
				Edits:  []patch.Edit{{Op: patch.OpInsert, Content: "hello\n"}},
			}},
		},
	}
}

func keyRune(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func TestModelToggleAndConfirm(t *testing.T) {
	t.Parallel()

	m := newModel(reviewFixture())
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	if !m.accepted[0] || !m.accepted[1] {
		t.Fatal("files should start out marked apply")
	}

	m.Update(keyRune("a"))
	if m.accepted[0] {
		t.Fatal("toggle should mark the current file skip")
	}

	m.Update(keyRune("n"))
	if m.idx != 1 {
		t.Fatalf("idx = %d after next, want 1", m.idx)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.confirmed {
		t.Fatal("enter should confirm the review")
	}
	if cmd == nil {
		t.Fatal("enter should quit the program")
	}
	if m.accepted[1] != true {
		t.Fatal("second file verdict should be untouched")
	}
}

func TestModelQuitLeavesUnconfirmed(t *testing.T) {
	t.Parallel()

	m := newModel(reviewFixture())
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	_, cmd := m.Update(keyRune("q"))
	if cmd == nil {
		t.Fatal("q should quit the program")
	}
	if m.confirmed {
		t.Fatal("quitting must not count as confirmation")
	}
}

func TestModelFileCyclingWraps(t *testing.T) {
	t.Parallel()

	m := newModel(reviewFixture())
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m.Update(keyRune("p"))
	if m.idx != 1 {
		t.Fatalf("previous from the first file should wrap to the last, got %d", m.idx)
	}
	m.Update(keyRune("n"))
	if m.idx != 0 {
		t.Fatalf("next from the last file should wrap to the first, got %d", m.idx)
	}
}

func TestModelViewShowsVerdictAndDiff(t *testing.T) {
	t.Parallel()

	m := newModel(reviewFixture())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	view := m.View()
	if !strings.Contains(view, "Review 1/2: alpha.txt") {
		t.Fatalf("view missing title, got:\n%s", view)
	}
	if !strings.Contains(view, "[apply]") {
		t.Fatal("view should show the apply verdict")
	}
	if !strings.Contains(view, "2 of 2 marked apply") {
		t.Fatal("view should summarize verdicts")
	}
	if !strings.Contains(view, "two") || !strings.Contains(view, "2") {
		t.Fatal("view should render the diff rows")
	}

	m.Update(keyRune("a"))
	view = m.View()
	if !strings.Contains(view, "[skip]") {
		t.Fatal("view should show the skip verdict after toggling")
	}
	if !strings.Contains(view, "1 of 2 marked apply") {
		t.Fatal("view summary should track the toggle")
	}
}
