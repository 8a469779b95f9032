// Package help renders the key reference overlay.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/pickpack/internal/tui/styles"
)

// Section is a titled group of bindings.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Overlay is the help screen. It is rendered lazily and cached per width.
type Overlay struct {
	sections []Section
	open     bool

	width, height int
	cached        string
	cachedWidth   int
}

// New creates a help overlay for sections.
func New(sections ...Section) *Overlay {
	return &Overlay{sections: sections}
}

// Toggle opens or closes the overlay.
func (o *Overlay) Toggle() { o.open = !o.open }

// Close closes the overlay.
func (o *Overlay) Close() { o.open = false }

// IsOpen reports whether the overlay is visible.
func (o *Overlay) IsOpen() bool { return o.open }

// SetSize sets the screen size the overlay is centered in.
func (o *Overlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// Markdown returns the help text as markdown.
func (o *Overlay) Markdown() string {
	var b strings.Builder
	b.WriteString("# pickpack\n\n")
	b.WriteString("Check packages, then install or uninstall them in one batch. ")
	b.WriteString("Jobs run one at a time; the log keeps one entry per job.\n\n")
	for _, sec := range o.sections {
		fmt.Fprintf(&b, "## %s\n\n", sec.Title)
		b.WriteString("| Key | Action |\n|-----|--------|\n")
		for _, kb := range sec.Bindings {
			h := kb.Help()
			if h.Key == "" {
				continue
			}
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("Press `?` or `esc` to close.\n")
	return b.String()
}

// View renders the overlay centered on screen.
func (o *Overlay) View() string {
	if !o.open || o.width <= 0 {
		return ""
	}
	inner := min(72, max(20, o.width-8))
	if o.cached == "" || o.cachedWidth != inner {
		o.cached = strings.TrimSpace(styles.RenderMarkdown(o.Markdown(), inner))
		o.cachedWidth = inner
	}

	box := styles.CurrentTheme().S().Overlay.
		MaxHeight(max(3, o.height-2)).
		Render(o.cached)
	return lipgloss.Place(o.width, o.height, lipgloss.Center, lipgloss.Center, box)
}
