package events

import (
	"github.com/billie-coop/pickpack/internal/catalog"
	"github.com/billie-coop/pickpack/internal/job"
)

// Type identifies the type of event
type Type string

const (
	// Batch lifecycle
	ControlsEnabledEvent Type = "controls.enabled"

	// Job events, in order for each job: started, output*, finished
	JobStartedEvent  Type = "job.started"
	JobOutputEvent   Type = "job.output"
	JobFinishedEvent Type = "job.finished"

	// Worker lifecycle
	WorkerStoppedEvent Type = "worker.stopped"

	// Catalog events
	CatalogReloadedEvent Type = "catalog.reloaded"
	CatalogErrorEvent    Type = "catalog.error"
)

// Event is posted by background goroutines and drained by the UI loop.
type Event struct {
	Type    Type
	Payload interface{}
}

// Event payload types. Payloads are snapshots and safe to keep.

type BatchPayload struct {
	BatchID  string
	Kind     job.Kind
	Progress job.Progress
}

type JobStartedPayload struct {
	Job      job.Request
	Index    int // 1-based position in its batch
	Status   string
	Progress job.Progress
}

type JobOutputPayload struct {
	Job  job.Request
	Line string
}

type JobFinishedPayload struct {
	Result   job.Result
	Status   string
	Progress job.Progress
}

type WorkerStoppedPayload struct {
	Dropped int
}

type CatalogPayload struct {
	Catalog *catalog.Catalog
}

type ErrorPayload struct {
	Err error
}
