package tui

import (
	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/billie-coop/pickpack/internal/catalog"
	"github.com/billie-coop/pickpack/internal/coordinator"
	"github.com/billie-coop/pickpack/internal/events"
	"github.com/billie-coop/pickpack/internal/job"
	"github.com/billie-coop/pickpack/internal/tui/components/checklist"
	"github.com/billie-coop/pickpack/internal/tui/components/help"
	"github.com/billie-coop/pickpack/internal/tui/components/joblog"
	"github.com/billie-coop/pickpack/internal/tui/components/progress"
	"github.com/billie-coop/pickpack/internal/tui/components/status"
)

// Controller queues batches and stops the worker.
type Controller interface {
	StartBatch(selected []catalog.Package, kind job.Kind) (coordinator.Batch, error)
	Pending() int
	Shutdown()
}

// InputMode switches the package manager between silent and prompting.
type InputMode interface {
	SetRequireUserInput(bool)
	RequireUserInput() bool
}

// Settings persists a setting; optional.
type Settings interface {
	Set(key, value string) error
}

// Options configures a Model.
type Options struct {
	Controller Controller
	Events     <-chan events.Event
	Catalog    *catalog.Catalog
	InputMode  InputMode
	Settings   Settings
	Logger     zerolog.Logger
}

type focusArea int

const (
	focusChecklist focusArea = iota
	focusLog
)

// Model is the top-level TUI model
type Model struct {
	width  int
	height int

	// Components
	checklist *checklist.Model
	jobLog    *joblog.Model
	progress  *progress.Model
	statusBar *status.Component
	help      *help.Overlay
	keys      KeyMap

	// Collaborators
	controller Controller
	eventSub   <-chan events.Event
	inputMode  InputMode
	settings   Settings
	logger     zerolog.Logger

	// UI state only
	focus           focusArea
	batchID         string
	controlsEnabled bool
	quitting        bool
	workerStopped   bool
}

// eventsClosedMsg is sent once the event stream has been closed.
type eventsClosedMsg struct{}

// New creates the TUI model.
func New(opts Options) *Model {
	keys := DefaultKeyMap()
	m := &Model{
		checklist:       checklist.New(opts.Catalog),
		jobLog:          joblog.New(),
		progress:        progress.New(),
		statusBar:       status.New(),
		keys:            keys,
		controller:      opts.Controller,
		eventSub:        opts.Events,
		inputMode:       opts.InputMode,
		settings:        opts.Settings,
		logger:          opts.Logger,
		controlsEnabled: true,
	}
	m.help = help.New(
		help.Section{Title: "Actions", Bindings: []key.Binding{
			keys.Install, keys.Uninstall, keys.ToggleInput, keys.ClearLog, keys.SwitchFocus, keys.Help, keys.Quit,
		}},
		help.Section{Title: "Checklist", Bindings: checklistBindings(keys)},
		help.Section{Title: "Log", Bindings: logBindings()},
	)
	return m
}

func checklistBindings(keys KeyMap) []key.Binding {
	ck := checklist.DefaultKeyMap()
	return []key.Binding{ck.Up, ck.Down, ck.Toggle, keys.CheckAll, keys.UncheckAll, keys.Invert, ck.PageUp, ck.PageDown}
}

func logBindings() []key.Binding {
	lk := joblog.DefaultKeyMap()
	return []key.Binding{lk.Up, lk.Down, lk.Expand, lk.PageUp, lk.PageDown, lk.End}
}

// Init starts listening for coordinator events
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.checklist.Init(),
		m.jobLog.Init(),
		m.statusBar.Init(),
		m.listenForEvents(),
	)
}

// listenForEvents waits for the next coordinator event
func (m *Model) listenForEvents() tea.Cmd {
	if m.eventSub == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-m.eventSub
		if !ok {
			return eventsClosedMsg{}
		}
		return event
	}
}

// Update handles all TUI updates and routes to components
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case events.Event:
		cmd := m.handleEvent(msg)
		return m, tea.Batch(cmd, m.listenForEvents())

	case eventsClosedMsg:
		m.workerStopped = true
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.resizeComponents()

	case tea.KeyPressMsg:
		return m, m.handleKey(msg)
	}

	// Timers and spinner ticks
	var cmds []tea.Cmd
	_, cmd := m.statusBar.Update(msg)
	cmds = append(cmds, cmd)
	_, cmd = m.progress.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.help.IsOpen() {
		if key.Matches(msg, m.keys.Help, m.keys.Close, m.keys.Quit) {
			m.help.Close()
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.Toggle()
		return nil
	case key.Matches(msg, m.keys.SwitchFocus):
		m.switchFocus()
		return nil
	case key.Matches(msg, m.keys.Install):
		return m.startBatch(job.Install)
	case key.Matches(msg, m.keys.Uninstall):
		return m.startBatch(job.Uninstall)
	case key.Matches(msg, m.keys.CheckAll):
		m.checklist.CheckAll()
		return nil
	case key.Matches(msg, m.keys.UncheckAll):
		m.checklist.UncheckAll()
		return nil
	case key.Matches(msg, m.keys.Invert):
		m.checklist.Invert()
		return nil
	case key.Matches(msg, m.keys.ToggleInput):
		return m.toggleInputMode()
	case key.Matches(msg, m.keys.ClearLog):
		return m.clearLog()
	}

	var cmd tea.Cmd
	if m.focus == focusLog {
		_, cmd = m.jobLog.Update(msg)
	} else {
		_, cmd = m.checklist.Update(msg)
	}
	return cmd
}

func (m *Model) switchFocus() {
	if m.focus == focusChecklist {
		m.focus = focusLog
		m.checklist.Blur()
		m.jobLog.Focus()
	} else {
		m.focus = focusChecklist
		m.jobLog.Blur()
		m.checklist.Focus()
	}
}

// startBatch queues the checked packages. Ignored while a batch runs.
func (m *Model) startBatch(kind job.Kind) tea.Cmd {
	if !m.controlsEnabled || m.quitting {
		return nil
	}

	selected := m.checklist.Selected()
	batch, err := m.controller.StartBatch(selected, kind)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to start batch")
		return m.statusBar.ShowError(err.Error())
	}

	m.batchID = batch.ID
	m.controlsEnabled = false
	m.logger.Debug().Str("batch_id", batch.ID).Stringer("kind", kind).Int("total", len(selected)).Msg("batch started")

	cmds := []tea.Cmd{m.progress.Start(kind, batch.Progress)}
	if len(selected) == 0 {
		m.statusBar.SetLeftContent("")
		cmds = append(cmds, m.statusBar.ShowWarning("No packages checked"))
	} else {
		m.statusBar.SetLeftContent(coordinator.StatusText(0, len(selected), "queued"))
	}
	return tea.Batch(cmds...)
}

// clearLog empties the job log between batches.
func (m *Model) clearLog() tea.Cmd {
	if !m.controlsEnabled {
		return m.statusBar.ShowWarning("The log can be cleared once the batch finishes")
	}
	m.jobLog.Clear()
	return nil
}

func (m *Model) toggleInputMode() tea.Cmd {
	if m.inputMode == nil {
		return nil
	}
	v := !m.inputMode.RequireUserInput()
	m.inputMode.SetRequireUserInput(v)

	if m.settings != nil {
		if err := m.settings.Set("interactive", boolString(v)); err != nil {
			m.logger.Warn().Err(err).Msg("failed to save input mode")
		}
	}
	if v {
		return m.statusBar.ShowInfo("Require user input: on (applies to jobs not yet started)")
	}
	return m.statusBar.ShowInfo("Require user input: off")
}

// quit asks the worker to stop after the running job and exits the UI.
func (m *Model) quit() tea.Cmd {
	if !m.quitting {
		m.quitting = true
		m.controller.Shutdown()
		m.logger.Info().Msg("shutdown requested")
	}
	return tea.Quit
}

// View renders the entire TUI
func (m *Model) View() tea.View {
	return tea.NewView(m.render())
}

// ControlsEnabled reports whether install/uninstall keys are accepted.
func (m *Model) ControlsEnabled() bool { return m.controlsEnabled }

// Quitting reports whether shutdown was requested.
func (m *Model) Quitting() bool { return m.quitting }

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

