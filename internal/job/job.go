package job

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the package operation a job performs.
type Kind int

const (
	Install Kind = iota
	Uninstall
)

// String returns the package-manager verb for the kind.
func (k Kind) String() string {
	switch k {
	case Install:
		return "install"
	case Uninstall:
		return "uninstall"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Request represents one pending package operation.
// It is created when a batch starts and consumed exactly once by the worker.
//
// Used by: coordinator (creates), queue.Worker (executes)
type Request struct {
	// ID uniquely identifies this job for log correlation
	ID string

	// BatchID ties the job to the batch whose progress it updates
	BatchID string

	// Name is the display name shown in the checklist
	Name string

	// PackageID is the package-manager identifier (e.g. "Git.Git")
	PackageID string

	Kind Kind
}

// NewRequest creates a Request with a fresh ID.
func NewRequest(batchID, name, packageID string, kind Kind) Request {
	return Request{
		ID:        uuid.NewString(),
		BatchID:   batchID,
		Name:      name,
		PackageID: packageID,
		Kind:      kind,
	}
}

// Signal is a sentinel placed on the queue alongside jobs.
type Signal int

const (
	// EnableControls marks the end of a batch; the UI may re-enable actions.
	EnableControls Signal = iota + 1
	// Shutdown stops the worker loop. Items behind it are never processed.
	Shutdown
)

func (s Signal) String() string {
	switch s {
	case EnableControls:
		return "enable-controls"
	case Shutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Item is the queue element: exactly one of Job or Signal is set.
// The zero Signal value never appears on a job item, so the two
// cannot be confused.
type Item struct {
	Job    *Request
	Signal Signal

	// BatchID is set on EnableControls so the finished batch can be identified.
	BatchID string
}

// JobItem wraps a request as a queue item.
func JobItem(r Request) Item {
	return Item{Job: &r, BatchID: r.BatchID}
}

// SignalItem wraps a control signal as a queue item.
func SignalItem(s Signal, batchID string) Item {
	return Item{Signal: s, BatchID: batchID}
}

// IsJob reports whether the item carries a job request.
func (it Item) IsJob() bool { return it.Job != nil }

// Outcome classifies how a job ended.
type Outcome int

const (
	Succeeded Outcome = iota
	// FailedExit means the tool ran and exited nonzero.
	FailedExit
	// FailedLaunch means the tool could not be started at all.
	FailedLaunch
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case FailedExit:
		return "failed"
	case FailedLaunch:
		return "launch-failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is what the worker reports after executing a job.
type Result struct {
	Job      Request
	Outcome  Outcome
	ExitCode int
	Err      error
	Output   []string
	Started  time.Time
	Duration time.Duration
}

// OK reports whether the job succeeded.
func (r Result) OK() bool { return r.Outcome == Succeeded }
