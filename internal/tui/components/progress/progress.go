// Package progress renders the batch progress bar and counters.
package progress

import (
	"fmt"

	"github.com/charmbracelet/bubbles/v2/spinner"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/pickpack/internal/job"
	"github.com/billie-coop/pickpack/internal/tui/styles"
)

// Model shows the current batch: a spinner while it runs, a gradient bar
// with the percentage, and succeeded/failed counters.
type Model struct {
	progress job.Progress
	kind     job.Kind
	active   bool
	hasBatch bool

	width   int
	spinner spinner.Model
}

// New creates an idle progress line.
func New() *Model {
	return &Model{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd { return nil }

// Start resets the display for a new batch and starts the spinner.
func (m *Model) Start(kind job.Kind, p job.Progress) tea.Cmd {
	m.kind = kind
	m.progress = p
	m.active = true
	m.hasBatch = true
	return m.spinner.Tick
}

// Set updates the counters.
func (m *Model) Set(p job.Progress) { m.progress = p }

// Stop marks the batch finished. The counters stay visible.
func (m *Model) Stop(p job.Progress) {
	m.progress = p
	m.active = false
}

// Progress returns the displayed counters.
func (m *Model) Progress() job.Progress { return m.progress }

// Active reports whether a batch is running.
func (m *Model) Active() bool { return m.active }

// Update advances the spinner while a batch runs.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); ok && m.active {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// SetSize sets the width of the progress line
func (m *Model) SetSize(width, height int) tea.Cmd {
	m.width = width
	return nil
}

// View renders the progress line
func (m *Model) View() string {
	if m.width <= 0 {
		return ""
	}
	s := styles.CurrentTheme().S()

	if !m.hasBatch {
		return s.Muted.Render("Idle")
	}

	lead := " "
	label := "Done"
	if m.active {
		lead = m.spinner.View()
		label = verb(m.kind)
	}
	left := fmt.Sprintf("%s %-12s", lead, label)
	right := fmt.Sprintf(" %3d%%  %s %d  %s %d",
		m.progress.Percent(),
		s.Success.Render(styles.SuccessIcon), m.progress.Succeeded,
		s.Error.Render(styles.ErrorIcon), m.progress.Failed)

	barWidth := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	bar := styles.RenderGradientBar(max(0, barWidth), float64(m.progress.Percent())/100)
	return left + bar + right
}

func verb(k job.Kind) string {
	if k == job.Uninstall {
		return "Uninstalling"
	}
	return "Installing"
}
