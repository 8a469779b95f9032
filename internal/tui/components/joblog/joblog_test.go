package joblog

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billie-coop/pickpack/internal/job"
)

func TestJobLog_Lifecycle(t *testing.T) {
	m := New()
	m.SetSize(60, 10)

	ok := job.NewRequest("b1", "Git", "Git.Git", job.Install)
	bad := job.NewRequest("b1", "Vim", "vim.vim", job.Uninstall)

	m.Begin(ok)
	m.Append(ok, "Downloading")
	m.Append(ok, "Installed")
	require.Len(t, m.Entries(), 1)
	e := m.Entries()[0]
	assert.Equal(t, Running, e.State)
	assert.True(t, e.Expanded)
	assert.Equal(t, "Install Git", e.Title)
	assert.Equal(t, []string{"Downloading", "Installed"}, e.Lines)

	m.Finish(job.Result{Job: ok, Outcome: job.Succeeded, Output: []string{"Downloading", "Installed"}, Duration: 2 * time.Second})
	assert.Equal(t, Succeeded, e.State)
	assert.False(t, e.Expanded, "successful entries collapse")

	m.Begin(bad)
	m.Finish(job.Result{Job: bad, Outcome: job.FailedExit, ExitCode: 5, Err: errors.New("exit status 5"), Output: []string{"boom"}})
	e = m.Entries()[1]
	assert.Equal(t, Failed, e.State)
	assert.True(t, e.Expanded, "failures stay open")
	assert.Equal(t, "Uninstall Vim", e.Title)

	view := m.View()
	assert.Contains(t, view, "Install Git")
	assert.NotContains(t, view, "Downloading")
	assert.Contains(t, view, "boom")
	assert.Contains(t, view, "(exit 5)")
}

func TestJobLog_OutputWithoutBegin(t *testing.T) {
	m := New()
	m.SetSize(60, 10)
	req := job.NewRequest("b1", "Git", "Git.Git", job.Install)

	m.Append(req, "late line")
	require.Len(t, m.Entries(), 1)
	assert.Equal(t, []string{"late line"}, m.Entries()[0].Lines)

	m.Begin(req)
	assert.Len(t, m.Entries(), 1, "Begin is idempotent per job")
}

func TestJobLog_ToggleWithKeys(t *testing.T) {
	m := New()
	m.SetSize(60, 10)
	for _, name := range []string{"A", "B", "C"} {
		req := job.NewRequest("b1", name, name, job.Install)
		m.Begin(req)
		m.Append(req, name+" output")
		m.Finish(job.Result{Job: req, Outcome: job.Succeeded})
	}

	m.Update(tea.KeyPressMsg{Code: 'k', Text: "k"})
	assert.Equal(t, -1, m.Selected(), "keys are ignored without focus")

	m.Focus()
	assert.Equal(t, 2, m.Selected(), "focus selects the newest entry")

	m.Update(tea.KeyPressMsg{Code: 'k', Text: "k"})
	assert.Equal(t, 1, m.Selected())
	m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.True(t, m.Entries()[1].Expanded)
	assert.Contains(t, m.View(), "B output")

	m.Update(tea.KeyPressMsg{Code: 'k', Text: "k"})
	m.Update(tea.KeyPressMsg{Code: 'k', Text: "k"})
	assert.Equal(t, 0, m.Selected(), "selection stops at the first entry")
}

func TestJobLog_Clear(t *testing.T) {
	m := New()
	m.SetSize(60, 10)
	req := job.NewRequest("b1", "Git", "Git.Git", job.Install)
	m.Begin(req)
	m.Clear()
	assert.Empty(t, m.Entries())
	assert.Contains(t, m.View(), "No jobs yet")
}
