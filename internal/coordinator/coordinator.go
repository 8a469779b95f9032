// Package coordinator turns checklist selections into queued jobs and
// relays the worker's progress to the UI as events.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/billie-coop/pickpack/internal/catalog"
	"github.com/billie-coop/pickpack/internal/events"
	"github.com/billie-coop/pickpack/internal/job"
	"github.com/billie-coop/pickpack/internal/queue"
)

// Batch is a snapshot of one batch's bookkeeping.
type Batch struct {
	ID       string
	Kind     job.Kind
	Progress job.Progress
}

// Coordinator owns the queue and its worker. StartBatch and Shutdown are
// called from the UI goroutine; everything the worker reports comes back
// through the event broker.
type Coordinator struct {
	queue  *queue.Queue
	worker *queue.Worker
	broker *events.Broker
	logger zerolog.Logger

	mu              sync.Mutex
	batches         map[string]*Batch
	current         string
	currentDrained  bool
	controlsEnabled bool
}

// New creates a coordinator that executes jobs with runner and publishes
// to broker. opts are passed to the worker.
func New(runner queue.Runner, broker *events.Broker, logger zerolog.Logger, opts ...queue.Option) *Coordinator {
	q := queue.New()
	opts = append([]queue.Option{queue.WithLogger(logger)}, opts...)

	c := &Coordinator{
		queue:           q,
		worker:          queue.NewWorker(q, runner, opts...),
		broker:          broker,
		logger:          logger,
		batches:         make(map[string]*Batch),
		controlsEnabled: true,
	}

	c.worker.OnStart(c.jobStarted)
	c.worker.OnOutput(c.jobOutput)
	c.worker.OnComplete(c.jobFinished)
	c.worker.OnBatchDone(c.batchDone)
	c.worker.OnStop(c.stopped)
	return c
}

// Start launches the worker.
func (c *Coordinator) Start(ctx context.Context) error {
	return c.worker.Start(ctx)
}

// StartBatch resets progress for a new batch, disables the controls and
// queues one job per selected package followed by EnableControls. The
// returned snapshot is applied by the caller directly; no event is
// published for it.
func (c *Coordinator) StartBatch(selected []catalog.Package, kind job.Kind) (Batch, error) {
	b := &Batch{
		ID:       uuid.NewString(),
		Kind:     kind,
		Progress: job.NewProgress(len(selected)),
	}

	items := make([]job.Item, 0, len(selected)+1)
	for _, p := range selected {
		items = append(items, job.JobItem(job.NewRequest(b.ID, p.Name, p.ID, kind)))
	}
	items = append(items, job.SignalItem(job.EnableControls, b.ID))

	c.mu.Lock()
	prev, prevDrained := c.current, c.currentDrained
	c.batches[b.ID] = b
	c.current = b.ID
	c.currentDrained = false
	c.controlsEnabled = false
	snapshot := *b
	c.mu.Unlock()

	for _, item := range items {
		if err := c.queue.Push(item); err != nil {
			c.mu.Lock()
			delete(c.batches, b.ID)
			c.current, c.currentDrained = prev, prevDrained
			c.controlsEnabled = true
			c.mu.Unlock()
			return Batch{}, fmt.Errorf("failed to queue %s batch: %w", kind, err)
		}
	}

	// A superseded batch still in flight is dropped by batchDone instead.
	if prevDrained {
		c.mu.Lock()
		delete(c.batches, prev)
		c.mu.Unlock()
	}

	c.logger.Info().
		Str("batch_id", b.ID).
		Stringer("kind", kind).
		Int("total", len(selected)).
		Msg("batch queued")
	return snapshot, nil
}

// Shutdown asks the worker to stop after the job in flight. Items still
// queued are discarded. The broker is closed once the worker exits.
func (c *Coordinator) Shutdown() {
	if err := c.queue.Push(job.SignalItem(job.Shutdown, "")); err != nil {
		if !errors.Is(err, queue.ErrClosed) {
			c.logger.Warn().Err(err).Msg("failed to queue shutdown")
		}
		return
	}
	c.logger.Debug().Msg("shutdown queued")
}

// Done is closed once the worker has exited.
func (c *Coordinator) Done() <-chan struct{} { return c.worker.Done() }

// ControlsEnabled reports whether install/uninstall actions are allowed.
func (c *Coordinator) ControlsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controlsEnabled
}

// Pending returns the number of jobs waiting behind the one in flight.
func (c *Coordinator) Pending() int { return c.queue.Len() }

func (c *Coordinator) jobStarted(req job.Request) {
	c.mu.Lock()
	var (
		progress job.Progress
		index    int
	)
	if b, ok := c.batches[req.BatchID]; ok {
		progress = b.Progress
		index = progress.Completed + 1
	}
	c.mu.Unlock()

	c.broker.Publish(events.Event{
		Type: events.JobStartedEvent,
		Payload: events.JobStartedPayload{
			Job:      req,
			Index:    index,
			Status:   StatusText(index, progress.Total, req.Name),
			Progress: progress,
		},
	})
}

func (c *Coordinator) jobOutput(req job.Request, line string) {
	c.broker.Publish(events.Event{
		Type:    events.JobOutputEvent,
		Payload: events.JobOutputPayload{Job: req, Line: line},
	})
}

// jobFinished runs on the worker goroutine. A late completion from an
// older batch updates that batch, never the current one.
func (c *Coordinator) jobFinished(res job.Result) {
	c.mu.Lock()
	b, ok := c.batches[res.Job.BatchID]
	if !ok {
		c.mu.Unlock()
		c.logger.Warn().Str("batch_id", res.Job.BatchID).Msg("completion for unknown batch")
		return
	}
	status := StatusText(b.Progress.Completed+1, b.Progress.Total, res.Job.Name)
	b.Progress.Record(res.OK())
	progress := b.Progress
	c.mu.Unlock()

	c.broker.Publish(events.Event{
		Type: events.JobFinishedEvent,
		Payload: events.JobFinishedPayload{
			Result:   res,
			Status:   status,
			Progress: progress,
		},
	})
}

func (c *Coordinator) batchDone(batchID string) {
	c.mu.Lock()
	b, ok := c.batches[batchID]
	if !ok {
		c.mu.Unlock()
		return
	}
	snapshot := *b
	if batchID == c.current {
		c.controlsEnabled = true
		c.currentDrained = true
	} else {
		delete(c.batches, batchID)
	}
	c.mu.Unlock()

	c.logger.Info().
		Str("batch_id", batchID).
		Int("succeeded", snapshot.Progress.Succeeded).
		Int("failed", snapshot.Progress.Failed).
		Msg("batch finished")

	c.broker.Publish(events.Event{
		Type: events.ControlsEnabledEvent,
		Payload: events.BatchPayload{
			BatchID:  snapshot.ID,
			Kind:     snapshot.Kind,
			Progress: snapshot.Progress,
		},
	})
}

func (c *Coordinator) stopped(dropped []job.Item) {
	n := 0
	for _, item := range dropped {
		if item.IsJob() {
			n++
		}
	}
	c.broker.Publish(events.Event{
		Type:    events.WorkerStoppedEvent,
		Payload: events.WorkerStoppedPayload{Dropped: n},
	})
	c.broker.Close()
}

// StatusText formats the status line for the index-th job of a batch.
func StatusText(index, total int, name string) string {
	return fmt.Sprintf("%d/%d — %s", index, total, name)
}
