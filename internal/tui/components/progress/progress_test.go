package progress

import (
	"testing"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billie-coop/pickpack/internal/job"
)

func TestProgress_Lifecycle(t *testing.T) {
	m := New()
	m.SetSize(70, 1)
	assert.Contains(t, m.View(), "Idle")

	cmd := m.Start(job.Install, job.NewProgress(4))
	require.NotNil(t, cmd)
	assert.True(t, m.Active())
	assert.Contains(t, m.View(), "Installing")
	assert.Contains(t, m.View(), "  0%")

	p := job.NewProgress(4)
	p.Record(true)
	p.Record(false)
	m.Set(p)
	assert.Contains(t, m.View(), " 50%")

	p.Record(true)
	p.Record(true)
	m.Stop(p)
	assert.False(t, m.Active())
	view := m.View()
	assert.Contains(t, view, "Done")
	assert.Contains(t, view, "100%")
	assert.Equal(t, 70, lipgloss.Width(view))
}

func TestProgress_EmptyBatch(t *testing.T) {
	m := New()
	m.SetSize(40, 1)
	m.Start(job.Uninstall, job.NewProgress(0))
	assert.Contains(t, m.View(), "Uninstalling")
	assert.Contains(t, m.View(), "  0%")
}
