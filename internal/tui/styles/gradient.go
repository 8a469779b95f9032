package styles

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/rivo/uniseg"
)

// ApplyGradient renders text with a horizontal gradient
func ApplyGradient(text string, color1, color2 color.Color, bold bool) string {
	if text == "" {
		return ""
	}

	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}

	var output strings.Builder
	colors := blendColors(len(clusters), color1, color2)
	for i, cluster := range clusters {
		style := lipgloss.NewStyle().Foreground(colors[i]).Bold(bold)
		output.WriteString(style.Render(cluster))
	}
	return output.String()
}

// RenderThemeGradient renders text with the current theme's primary gradient
func RenderThemeGradient(text string, bold bool) string {
	theme := CurrentTheme()
	return ApplyGradient(text, theme.Primary, theme.Accent, bold)
}

// RenderGradientBar creates a gradient progress bar; filled is 0..1.
func RenderGradientBar(width int, filled float64) string {
	if width <= 0 {
		return ""
	}
	filled = max(0, min(1, filled))

	theme := CurrentTheme()
	filledWidth := int(float64(width) * filled)

	var bar strings.Builder
	colors := blendColors(filledWidth, theme.Primary, theme.Secondary)
	for i := 0; i < filledWidth; i++ {
		bar.WriteString(lipgloss.NewStyle().Foreground(colors[i]).Render("█"))
	}
	if filledWidth < width {
		empty := lipgloss.NewStyle().Foreground(theme.BgOverlay)
		bar.WriteString(empty.Render(strings.Repeat("░", width-filledWidth)))
	}
	return bar.String()
}
