package styles

import (
	"github.com/charmbracelet/glamour/v2"
)

// RenderMarkdown renders md with the current theme, falling back to the
// raw text if glamour fails.
func RenderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(CurrentTheme().S().Markdown),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
