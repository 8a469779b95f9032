// Package checklist renders the catalog as categorized checkboxes.
package checklist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/pickpack/internal/catalog"
	"github.com/billie-coop/pickpack/internal/tui/styles"
)

// row is one rendered line: a category header or a package.
type row struct {
	header string
	pkg    catalog.Package
}

func (r row) isHeader() bool { return r.header != "" }

// Model is the package checklist. Checks are tracked by package id so
// they survive a catalog reload.
type Model struct {
	rows    []row
	checked map[string]bool

	cursor int // index into rows; always a package row when any exist
	offset int

	width, height int
	focused       bool

	keyMap KeyMap
}

// New creates a checklist for cat.
func New(cat *catalog.Catalog) *Model {
	m := &Model{
		checked: make(map[string]bool),
		keyMap:  DefaultKeyMap(),
		focused: true,
	}
	m.SetCatalog(cat)
	return m
}

// SetCatalog replaces the list. Checks and the cursor position are kept
// for packages whose id is still present.
func (m *Model) SetCatalog(cat *catalog.Catalog) {
	var current string
	if p, ok := m.Current(); ok {
		current = idKey(p)
	}

	m.rows = m.rows[:0]
	present := make(map[string]bool)
	if cat != nil {
		for _, c := range cat.Categories {
			m.rows = append(m.rows, row{header: c.Name})
			for _, p := range c.Packages {
				p.Category = c.Name
				m.rows = append(m.rows, row{pkg: p})
				present[idKey(p)] = true
			}
		}
	}
	for id := range m.checked {
		if !present[id] {
			delete(m.checked, id)
		}
	}

	m.cursor = m.firstPackage()
	for i, r := range m.rows {
		if !r.isHeader() && idKey(r.pkg) == current {
			m.cursor = i
			break
		}
	}
	m.clampOffset()
}

func idKey(p catalog.Package) string { return strings.ToLower(p.ID) }

// Init implements tea.Model
func (m *Model) Init() tea.Cmd { return nil }

// Update handles navigation and toggling while focused.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	if msg, ok := msg.(tea.KeyPressMsg); ok {
		switch {
		case key.Matches(msg, m.keyMap.Down):
			m.MoveDown(1)
		case key.Matches(msg, m.keyMap.Up):
			m.MoveUp(1)
		case key.Matches(msg, m.keyMap.PageDown):
			m.MoveDown(max(1, m.height-1))
		case key.Matches(msg, m.keyMap.PageUp):
			m.MoveUp(max(1, m.height-1))
		case key.Matches(msg, m.keyMap.Home):
			m.cursor = m.firstPackage()
			m.clampOffset()
		case key.Matches(msg, m.keyMap.End):
			m.cursor = m.lastPackage()
			m.clampOffset()
		case key.Matches(msg, m.keyMap.Toggle):
			m.ToggleCurrent()
		}
	}
	return m, nil
}

// MoveDown moves the cursor n packages down, skipping headers.
func (m *Model) MoveDown(n int) {
	for ; n > 0; n-- {
		next := m.cursor + 1
		for next < len(m.rows) && m.rows[next].isHeader() {
			next++
		}
		if next >= len(m.rows) {
			break
		}
		m.cursor = next
	}
	m.clampOffset()
}

// MoveUp moves the cursor n packages up, skipping headers.
func (m *Model) MoveUp(n int) {
	for ; n > 0; n-- {
		prev := m.cursor - 1
		for prev >= 0 && m.rows[prev].isHeader() {
			prev--
		}
		if prev < 0 {
			break
		}
		m.cursor = prev
	}
	m.clampOffset()
}

// Current returns the package under the cursor.
func (m *Model) Current() (catalog.Package, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) || m.rows[m.cursor].isHeader() {
		return catalog.Package{}, false
	}
	return m.rows[m.cursor].pkg, true
}

// ToggleCurrent flips the package under the cursor.
func (m *Model) ToggleCurrent() {
	if p, ok := m.Current(); ok {
		m.set(p, !m.checked[idKey(p)])
	}
}

// CheckAll checks every package.
func (m *Model) CheckAll() {
	m.each(func(p catalog.Package) { m.set(p, true) })
}

// UncheckAll clears every check.
func (m *Model) UncheckAll() {
	m.checked = make(map[string]bool)
}

// Invert flips every package.
func (m *Model) Invert() {
	m.each(func(p catalog.Package) { m.set(p, !m.checked[idKey(p)]) })
}

// IsChecked reports whether the package with id is checked.
func (m *Model) IsChecked(id string) bool { return m.checked[strings.ToLower(id)] }

// Selected returns the checked packages in display order.
func (m *Model) Selected() []catalog.Package {
	var out []catalog.Package
	m.each(func(p catalog.Package) {
		if m.checked[idKey(p)] {
			out = append(out, p)
		}
	})
	return out
}

// Counts returns the number of checked packages and the total.
func (m *Model) Counts() (checked, total int) {
	m.each(func(p catalog.Package) {
		total++
		if m.checked[idKey(p)] {
			checked++
		}
	})
	return checked, total
}

func (m *Model) set(p catalog.Package, v bool) {
	if v {
		m.checked[idKey(p)] = true
	} else {
		delete(m.checked, idKey(p))
	}
}

func (m *Model) each(fn func(catalog.Package)) {
	for _, r := range m.rows {
		if !r.isHeader() {
			fn(r.pkg)
		}
	}
}

func (m *Model) firstPackage() int {
	for i, r := range m.rows {
		if !r.isHeader() {
			return i
		}
	}
	return 0
}

func (m *Model) lastPackage() int {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if !m.rows[i].isHeader() {
			return i
		}
	}
	return 0
}

// clampOffset keeps the cursor (and its category header when possible)
// inside the visible window.
func (m *Model) clampOffset() {
	if m.height <= 0 {
		return
	}
	top := m.cursor
	if top > 0 && m.rows[top-1].isHeader() {
		top--
	}
	if top < m.offset {
		m.offset = top
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	m.offset = max(0, min(m.offset, len(m.rows)-m.height))
}

// SetSize sets the dimensions of the checklist
func (m *Model) SetSize(width, height int) tea.Cmd {
	m.width = width
	m.height = height
	m.clampOffset()
	return nil
}

// Focus gives the checklist keyboard focus.
func (m *Model) Focus() { m.focused = true }

// Blur removes keyboard focus.
func (m *Model) Blur() { m.focused = false }

// Focused reports whether the checklist has focus.
func (m *Model) Focused() bool { return m.focused }

// View renders the visible window of rows.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if len(m.rows) == 0 {
		return styles.CurrentTheme().S().Muted.Render("No packages in catalog")
	}

	s := styles.CurrentTheme().S()
	end := min(len(m.rows), m.offset+m.height)
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		if r.isHeader() {
			lines = append(lines, s.Category.Render(truncate(r.header, m.width)))
			continue
		}

		box := styles.UncheckedIcon
		style := s.Base
		if m.checked[idKey(r.pkg)] {
			box = styles.CheckedIcon
			style = s.Checked
		}
		pointer := " "
		if i == m.cursor && m.focused {
			pointer = styles.CursorIcon
			style = s.Cursor
		}
		line := fmt.Sprintf("%s %s %s", pointer, box, r.pkg.Name)
		lines = append(lines, style.Render(truncate(line, m.width)))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
