package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/pickpack/internal/tui/styles"
)

const (
	titleHeight    = 1
	progressHeight = 1
	statusHeight   = 1
	footerHeight   = 1
	borderSize     = 2
)

// resizeComponents resizes all components based on current window size
func (m *Model) resizeComponents() tea.Cmd {
	listWidth := m.checklistWidth()
	logWidth := m.width - listWidth
	bodyHeight := m.bodyHeight()

	var cmds []tea.Cmd
	cmds = append(cmds, m.checklist.SetSize(listWidth-borderSize, bodyHeight-borderSize))
	cmds = append(cmds, m.jobLog.SetSize(logWidth-borderSize, bodyHeight-borderSize))
	cmds = append(cmds, m.progress.SetSize(m.width, progressHeight))
	cmds = append(cmds, m.statusBar.SetSize(m.width, statusHeight))
	m.help.SetSize(m.width, m.height)
	return tea.Batch(cmds...)
}

// checklistWidth gives the checklist about two fifths of the screen.
func (m *Model) checklistWidth() int {
	w := m.width * 2 / 5
	if m.width < 80 {
		w = m.width / 2
	}
	return max(borderSize+10, min(w, 60))
}

func (m *Model) bodyHeight() int {
	return max(borderSize+1, m.height-titleHeight-progressHeight-statusHeight-footerHeight)
}

func (m *Model) render() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.help.IsOpen() {
		return m.help.View()
	}

	s := styles.CurrentTheme().S()

	listStyle, logStyle := s.BorderFocused, s.Border
	if m.focus == focusLog {
		listStyle, logStyle = s.Border, s.BorderFocused
	}
	listWidth := m.checklistWidth()
	bodyHeight := m.bodyHeight()

	listView := listStyle.
		Width(listWidth - borderSize).
		Height(bodyHeight - borderSize).
		Render(m.checklist.View())
	logView := logStyle.
		Width(m.width - listWidth - borderSize).
		Height(bodyHeight - borderSize).
		Render(m.jobLog.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		lipgloss.JoinHorizontal(lipgloss.Top, listView, logView),
		m.progress.View(),
		m.statusBar.View(),
		m.renderFooter(),
	)
}

func (m *Model) renderTitle() string {
	s := styles.CurrentTheme().S()
	checked, total := m.checklist.Counts()

	parts := []string{
		styles.RenderThemeGradient("pickpack", true),
		s.Muted.Render(fmt.Sprintf("%d/%d checked", checked, total)),
	}
	if m.inputMode != nil {
		mode := "silent"
		if m.inputMode.RequireUserInput() {
			mode = "require user input"
		}
		parts = append(parts, s.Muted.Render("mode: "+mode))
	}
	switch {
	case m.workerStopped:
		parts = append(parts, s.Error.Render("stopped"))
	case m.quitting:
		parts = append(parts, s.Warning.Render("stopping"))
	case !m.controlsEnabled:
		busy := "busy"
		if n := m.controller.Pending(); n > 0 {
			busy += fmt.Sprintf(" · %d queued", n)
		}
		parts = append(parts, s.Warning.Render(busy))
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(strings.Join(parts, "  "))
}

func (m *Model) renderFooter() string {
	s := styles.CurrentTheme().S()
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		style := s.Subtle
		if !m.controlsEnabled && (h.Key == m.keys.Install.Help().Key || h.Key == m.keys.Uninstall.Help().Key) {
			style = s.Disabled.Strikethrough(true)
		}
		parts = append(parts, style.Render(h.Key+" "+h.Desc))
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(strings.Join(parts, s.Subtle.Render(" • ")))
}
