package help

import (
	"testing"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/stretchr/testify/assert"
)

func TestOverlay(t *testing.T) {
	o := New(Section{
		Title: "Checklist",
		Bindings: []key.Binding{
			key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "install checked")),
			key.NewBinding(key.WithKeys("x")), // no help, skipped
		},
	})
	o.SetSize(80, 30)

	md := o.Markdown()
	assert.Contains(t, md, "## Checklist")
	assert.Contains(t, md, "| `i` | install checked |")
	assert.NotContains(t, md, "`x`")

	assert.Empty(t, o.View())
	o.Toggle()
	assert.True(t, o.IsOpen())
	assert.Contains(t, o.View(), "install")

	o.Close()
	assert.False(t, o.IsOpen())
}
