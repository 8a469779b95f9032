// Package joblog shows one collapsible log entry per job.
package joblog

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/pickpack/internal/job"
	"github.com/billie-coop/pickpack/internal/tui/styles"
)

// State of a log entry.
type State int

const (
	Running State = iota
	Succeeded
	Failed
)

// Entry is the log of one job.
type Entry struct {
	JobID    string
	Title    string
	Lines    []string
	State    State
	ExitCode int
	Duration time.Duration
	Expanded bool
}

// KeyMap defines key bindings for the log panel
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Expand   key.Binding
	End      key.Binding
}

// DefaultKeyMap returns the default key bindings for the log panel
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous entry"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next entry"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup/b", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "f"),
			key.WithHelp("pgdn/f", "page down"),
		),
		Expand: key.NewBinding(
			key.WithKeys("enter", "space", " "),
			key.WithHelp("enter", "expand/collapse"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "follow output"),
		),
	}
}

// Model is the log panel.
type Model struct {
	entries []*Entry
	byID    map[string]*Entry

	selected int  // entry index, -1 when none
	follow   bool // keep the newest output in view
	top      int  // first visible line when not following

	headerLine []int // content line of each entry header

	width, height int
	focused       bool
	viewport      viewport.Model
	keyMap        KeyMap
}

// New creates an empty log panel.
func New() *Model {
	return &Model{
		byID:     make(map[string]*Entry),
		selected: -1,
		follow:   true,
		viewport: viewport.New(),
		keyMap:   DefaultKeyMap(),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd { return nil }

// Begin adds an expanded, running entry for req.
func (m *Model) Begin(req job.Request) {
	if _, ok := m.byID[req.ID]; ok {
		return
	}
	e := &Entry{
		JobID:    req.ID,
		Title:    fmt.Sprintf("%s %s", action(req.Kind), req.Name),
		State:    Running,
		Expanded: true,
	}
	m.entries = append(m.entries, e)
	m.byID[req.ID] = e
	m.refresh()
}

// Append adds an output line to the job's entry.
func (m *Model) Append(req job.Request, line string) {
	e, ok := m.byID[req.ID]
	if !ok {
		m.Begin(req)
		e = m.byID[req.ID]
	}
	e.Lines = append(e.Lines, line)
	m.refresh()
}

// Finish records the outcome. Successful entries collapse; failures stay
// open so the error is visible.
func (m *Model) Finish(res job.Result) {
	e, ok := m.byID[res.Job.ID]
	if !ok {
		m.Begin(res.Job)
		e = m.byID[res.Job.ID]
	}
	if len(res.Output) > 0 {
		e.Lines = append([]string(nil), res.Output...)
	}
	e.Duration = res.Duration
	e.ExitCode = res.ExitCode
	if res.OK() {
		e.State = Succeeded
		e.Expanded = false
	} else {
		e.State = Failed
		e.Expanded = true
	}
	m.refresh()
}

// Entries returns the entries in job order.
func (m *Model) Entries() []*Entry { return m.entries }

// Clear removes every entry.
func (m *Model) Clear() {
	m.entries = nil
	m.byID = make(map[string]*Entry)
	m.selected = -1
	m.follow = true
	m.refresh()
}

// Toggle expands or collapses the entry at index i.
func (m *Model) Toggle(i int) {
	if i < 0 || i >= len(m.entries) {
		return
	}
	m.entries[i].Expanded = !m.entries[i].Expanded
	m.refresh()
}

// Update handles selection and scrolling while focused.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	if msg, ok := msg.(tea.KeyPressMsg); ok {
		switch {
		case key.Matches(msg, m.keyMap.Down):
			m.selectEntry(m.selected + 1)
		case key.Matches(msg, m.keyMap.Up):
			m.selectEntry(m.selected - 1)
		case key.Matches(msg, m.keyMap.Expand):
			m.Toggle(m.selected)
		case key.Matches(msg, m.keyMap.PageDown):
			m.scroll(m.height)
		case key.Matches(msg, m.keyMap.PageUp):
			m.scroll(-m.height)
		case key.Matches(msg, m.keyMap.End):
			m.follow = true
			m.refresh()
		}
	}
	return m, nil
}

func (m *Model) selectEntry(i int) {
	if len(m.entries) == 0 {
		return
	}
	m.selected = max(0, min(i, len(m.entries)-1))
	m.follow = false

	line := m.headerLine[m.selected]
	if line < m.top {
		m.top = line
	} else if line >= m.top+m.height {
		m.top = line - m.height + 1
	}
	m.refresh()
}

func (m *Model) scroll(delta int) {
	m.follow = false
	m.top += delta
	m.refresh()
}

// Selected returns the index of the selected entry, or -1.
func (m *Model) Selected() int { return m.selected }

// SetSize sets the dimensions of the log panel
func (m *Model) SetSize(width, height int) tea.Cmd {
	m.width = width
	m.height = height
	m.viewport = viewport.New(
		viewport.WithWidth(width),
		viewport.WithHeight(height),
	)
	m.refresh()
	return nil
}

// Focus gives the log keyboard focus and selects the newest entry.
func (m *Model) Focus() {
	m.focused = true
	if m.selected < 0 && len(m.entries) > 0 {
		m.selected = len(m.entries) - 1
	}
	m.refresh()
}

// Blur removes keyboard focus.
func (m *Model) Blur() {
	m.focused = false
	m.refresh()
}

// Focused reports whether the log has focus.
func (m *Model) Focused() bool { return m.focused }

// View renders the log panel
func (m *Model) View() string {
	if len(m.entries) == 0 {
		return styles.CurrentTheme().S().Muted.Render("No jobs yet. Check packages and press i or u.")
	}
	return m.viewport.View()
}

// refresh re-renders the content and positions the viewport.
func (m *Model) refresh() {
	content := m.render()
	m.viewport.SetContent(content)
	if m.follow {
		m.viewport.GotoBottom()
		return
	}
	total := strings.Count(content, "\n") + 1
	m.top = max(0, min(m.top, total-m.height))
	m.viewport.SetYOffset(m.top)
}

func (m *Model) render() string {
	s := styles.CurrentTheme().S()
	m.headerLine = m.headerLine[:0]

	var lines []string
	for i, e := range m.entries {
		m.headerLine = append(m.headerLine, len(lines))

		toggle := styles.CollapsedIcon
		if e.Expanded {
			toggle = styles.ExpandedIcon
		}

		var marker string
		switch e.State {
		case Succeeded:
			marker = s.Success.Render(styles.SuccessIcon)
		case Failed:
			marker = s.Error.Render(styles.ErrorIcon)
		default:
			marker = s.Info.Render(styles.RunningIcon)
		}

		header := fmt.Sprintf("%s %s %s", toggle, marker, e.Title)
		if e.State == Failed && e.ExitCode != 0 {
			header += s.Muted.Render(fmt.Sprintf(" (exit %d)", e.ExitCode))
		}
		if e.Duration > 0 {
			header += s.Subtle.Render(" " + e.Duration.Round(time.Second).String())
		}
		if m.focused && i == m.selected {
			header = s.Cursor.Render(header)
		}
		lines = append(lines, clip(header, m.width))

		if e.Expanded {
			for _, l := range e.Lines {
				lines = append(lines, clip("    "+l, m.width))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func action(k job.Kind) string {
	if k == job.Uninstall {
		return "Uninstall"
	}
	return "Install"
}

func clip(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
