package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/tandemhq/tandem/pkg/patch"
)

// File is one reviewable change: the target path, the file's current lines,
// and the patch awaiting a verdict.
type File struct {
	Path string
	Base []string
	Set  patch.Set
}

// Decision is the reviewer's verdict for one file.
type Decision struct {
	Path     string
	Accepted bool
}

// ErrAborted is returned by Run when the reviewer quits without confirming.
var ErrAborted = errors.New("tui: review aborted")

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Next     key.Binding
	Prev     key.Binding
	Toggle   key.Binding
	Confirm  key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("ctrl+b", "pgup"),
			key.WithHelp("ctrl-b", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("ctrl+f", "pgdown"),
			key.WithHelp("ctrl-f", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Next: key.NewBinding(
			key.WithKeys("n", "tab", "right"),
			key.WithHelp("n", "next file"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "shift+tab", "left"),
			key.WithHelp("p", "previous file"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "a"),
			key.WithHelp("space", "toggle apply"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "abort"),
		),
	}
}

type model struct {
	keys     keyMap
	files    []File
	rows     [][]row
	accepted []bool
	idx      int

	vp     viewport.Model
	width  int
	height int
	ready  bool

	confirmed bool

	fileStyle   lipgloss.Style
	hunkStyle   lipgloss.Style
	ctxStyle    lipgloss.Style
	delStyle    lipgloss.Style
	insStyle    lipgloss.Style
	numStyle    lipgloss.Style
	acceptStyle lipgloss.Style
	skipStyle   lipgloss.Style
	helpStyle   lipgloss.Style
	border      lipgloss.Style
}

func newModel(files []File) *model {
	m := model{
		keys:        defaultKeyMap(),
		files:       files,
		rows:        make([][]row, len(files)),
		accepted:    make([]bool, len(files)),
		vp:          viewport.New(1, 1),
		fileStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		hunkStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		ctxStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		delStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		insStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("70")),
		numStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		acceptStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("70")),
		skipStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		helpStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		border:      lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")),
	}
	for i, f := range files {
		m.rows[i] = buildRows(f)
		m.accepted[i] = true
	}
	return &m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		m.ready = true
		m.setFile(m.idx)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Confirm):
			m.confirmed = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Toggle):
			m.accepted[m.idx] = !m.accepted[m.idx]
			return m, nil

		case key.Matches(msg, m.keys.Next):
			m.setFile(m.idx + 1)
			return m, nil

		case key.Matches(msg, m.keys.Prev):
			m.setFile(m.idx - 1)
			return m, nil

		case key.Matches(msg, m.keys.Up):
			m.vp.LineUp(1)
			return m, nil

		case key.Matches(msg, m.keys.Down):
			m.vp.LineDown(1)
			return m, nil

		case key.Matches(msg, m.keys.PageUp):
			m.vp.ViewUp()
			return m, nil

		case key.Matches(msg, m.keys.PageDown):
			m.vp.ViewDown()
			return m, nil

		case key.Matches(msg, m.keys.Top):
			m.vp.GotoTop()
			return m, nil

		case key.Matches(msg, m.keys.Bottom):
			m.vp.GotoBottom()
			return m, nil
		}
	}
	return m, nil
}

func (m model) View() string {
	if !m.ready {
		return "Loading review..."
	}

	f := m.files[m.idx]
	verdict := m.acceptStyle.Render("[apply]")
	if !m.accepted[m.idx] {
		verdict = m.skipStyle.Render("[skip]")
	}
	title := fmt.Sprintf("Review %d/%d: %s %s", m.idx+1, len(m.files), f.Path, verdict)

	kept := 0
	for _, ok := range m.accepted {
		if ok {
			kept++
		}
	}
	help := m.helpStyle.Render(fmt.Sprintf(
		"%d of %d marked apply | space toggle | n/p file | j/k scroll | ctrl-f/b page | g/G top/bottom | enter confirm | q abort",
		kept, len(m.files),
	))

	return title + "\n" + m.border.Render(m.vp.View()) + "\n" + help
}

// setFile switches the pane to file i, wrapping at both ends of the list.
func (m *model) setFile(i int) {
	if len(m.files) == 0 {
		return
	}
	n := len(m.files)
	m.idx = ((i % n) + n) % n
	m.vp.SetContent(m.renderRows(m.rows[m.idx]))
	m.vp.GotoTop()
}

func (m *model) recalcLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	// Title and help take one row each; the viewport border takes two more.
	m.vp.Width = max(1, m.width-2)
	m.vp.Height = max(3, m.height-4)
}

func (m *model) renderRows(rows []row) string {
	maxLine := 0
	for _, r := range rows {
		if r.oldLine != nil && *r.oldLine > maxLine {
			maxLine = *r.oldLine
		}
		if r.newLine != nil && *r.newLine > maxLine {
			maxLine = *r.newLine
		}
	}
	numW := digits(maxLine)
	if numW < 3 {
		numW = 3
	}

	var b strings.Builder
	for _, r := range rows {
		switch r.kind {
		case rowFileHeader:
			b.WriteString(m.fileStyle.Render(r.text))
		case rowHunkHeader:
			b.WriteString(m.hunkStyle.Render(r.text))
		case rowContext:
			b.WriteString(m.numStyle.Render(fmt.Sprintf("%*s %*s", numW, numText(r.oldLine), numW, numText(r.newLine))))
			b.WriteString("   ")
			b.WriteString(m.ctxStyle.Render(r.text))
		case rowDelete:
			b.WriteString(m.delStyle.Render(fmt.Sprintf("%*s %*s - %s", numW, numText(r.oldLine), numW, "", r.text)))
		case rowInsert:
			b.WriteString(m.insStyle.Render(fmt.Sprintf("%*s %*s + %s", numW, "", numW, numText(r.newLine), r.text)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func numText(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func digits(n int) int {
	if n <= 0 {
		return 1
	}
	d := 0
	for n > 0 {
		d++
		n /= 10
	}
	return d
}

// Run opens the interactive review for the given files and blocks until the
// reviewer confirms or aborts. On confirm it returns one Decision per file,
// in input order. Files start out marked apply.
func Run(ctx context.Context, files []File) ([]Decision, error) {
	if len(files) == 0 {
		return nil, nil
	}

	// Pin the color profile so lipgloss never probes the terminal with OSC
	// queries that would contaminate stdin.
	lipgloss.SetColorProfile(termenv.TrueColor)
	lipgloss.SetHasDarkBackground(true)

	m := newModel(files)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("tui: %w", err)
	}
	if !m.confirmed {
		return nil, ErrAborted
	}

	out := make([]Decision, len(files))
	for i, f := range files {
		out[i] = Decision{Path: f.Path, Accepted: m.accepted[i]}
	}
	return out, nil
}
