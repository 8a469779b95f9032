package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/billie-coop/pickpack/internal/events"
	"github.com/billie-coop/pickpack/internal/job"
)

// handleEvent applies a coordinator event to UI state
func (m *Model) handleEvent(event events.Event) tea.Cmd {
	switch event.Type {
	case events.JobStartedEvent:
		if payload, ok := event.Payload.(events.JobStartedPayload); ok {
			m.jobLog.Begin(payload.Job)
			if payload.Job.BatchID == m.batchID {
				m.statusBar.SetLeftContent(payload.Status)
				m.progress.Set(payload.Progress)
			}
		}

	case events.JobOutputEvent:
		if payload, ok := event.Payload.(events.JobOutputPayload); ok {
			m.jobLog.Append(payload.Job, payload.Line)
		}

	case events.JobFinishedEvent:
		if payload, ok := event.Payload.(events.JobFinishedPayload); ok {
			m.jobLog.Finish(payload.Result)
			if payload.Result.Job.BatchID == m.batchID {
				m.statusBar.SetLeftContent(payload.Status)
				m.progress.Set(payload.Progress)
			}
			if !payload.Result.OK() {
				return m.statusBar.ShowError(fmt.Sprintf("%s failed", payload.Result.Job.Name))
			}
		}

	case events.ControlsEnabledEvent:
		if payload, ok := event.Payload.(events.BatchPayload); ok && payload.BatchID == m.batchID {
			m.controlsEnabled = true
			m.progress.Stop(payload.Progress)
			return m.batchSummary(payload)
		}

	case events.WorkerStoppedEvent:
		m.workerStopped = true
		m.controlsEnabled = false

	case events.CatalogReloadedEvent:
		if payload, ok := event.Payload.(events.CatalogPayload); ok && payload.Catalog != nil {
			m.checklist.SetCatalog(payload.Catalog)
			return m.statusBar.ShowInfo(fmt.Sprintf("Catalog reloaded (%d packages)", payload.Catalog.Len()))
		}

	case events.CatalogErrorEvent:
		if payload, ok := event.Payload.(events.ErrorPayload); ok {
			return m.statusBar.ShowError(fmt.Sprintf("Catalog not reloaded: %v", payload.Err))
		}
	}
	return nil
}

func (m *Model) batchSummary(b events.BatchPayload) tea.Cmd {
	p := b.Progress
	if p.Total == 0 {
		return nil
	}
	verb := "Installed"
	if b.Kind == job.Uninstall {
		verb = "Uninstalled"
	}
	msg := fmt.Sprintf("%s %d of %d", verb, p.Succeeded, p.Total)
	if p.Failed > 0 {
		return m.statusBar.ShowWarning(fmt.Sprintf("%s, %d failed", msg, p.Failed))
	}
	return m.statusBar.ShowSuccess(msg)
}
