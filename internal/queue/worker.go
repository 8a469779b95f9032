package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/billie-coop/pickpack/internal/job"
)

// LineSink receives output lines of a running job as they arrive.
type LineSink func(line string)

// Runner executes one job and reports how it ended.
// Implementations must not return until the external process has exited.
type Runner interface {
	Run(ctx context.Context, req job.Request, sink LineSink) job.Result
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req job.Request, sink LineSink) job.Result

func (f RunnerFunc) Run(ctx context.Context, req job.Request, sink LineSink) job.Result {
	return f(ctx, req, sink)
}

// Worker pulls items from a Queue and executes them one at a time.
//
// Callbacks run on the worker goroutine. Consumers that touch UI state
// must hand the data off to their own event loop.
//
// Used by: coordinator (starts it, registers callbacks)
// Connects to: Queue (pops items), Runner (executes jobs)
type Worker struct {
	queue   *Queue
	runner  Runner
	timeout time.Duration
	logger  zerolog.Logger

	started atomic.Bool
	done    chan struct{}

	// Callbacks; set before Start
	onStart     func(job.Request)
	onOutput    func(job.Request, string)
	onComplete  func(job.Result)
	onBatchDone func(batchID string)
	onStop      func(dropped []job.Item)
}

// Option configures a Worker.
type Option func(*Worker)

// WithTimeout bounds each job. Zero means no limit: a package manager
// that never exits stalls the queue.
func WithTimeout(d time.Duration) Option {
	return func(w *Worker) { w.timeout = d }
}

// WithLogger sets the worker's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// NewWorker creates a worker bound to q that executes jobs with runner.
func NewWorker(q *Queue, runner Runner, opts ...Option) *Worker {
	w := &Worker{
		queue:  q,
		runner: runner,
		logger: zerolog.Nop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnStart sets the callback fired before a job executes.
func (w *Worker) OnStart(fn func(job.Request)) { w.onStart = fn }

// OnOutput sets the callback fired for every output line.
func (w *Worker) OnOutput(fn func(job.Request, string)) { w.onOutput = fn }

// OnComplete sets the callback fired after each job.
func (w *Worker) OnComplete(fn func(job.Result)) { w.onComplete = fn }

// OnBatchDone sets the callback fired when EnableControls is dequeued.
func (w *Worker) OnBatchDone(fn func(batchID string)) { w.onBatchDone = fn }

// OnStop sets the callback fired once the loop exits, with the items
// that were still queued behind Shutdown.
func (w *Worker) OnStop(fn func(dropped []job.Item)) { w.onStop = fn }

// Start launches the worker goroutine. ctx is handed to every job.
func (w *Worker) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("worker already started")
	}
	go w.run(ctx)
	return nil
}

// Done is closed when the worker loop has exited.
func (w *Worker) Done() <-chan struct{} { return w.done }

// run is the main loop. It only exits on Shutdown or a closed queue.
func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	w.logger.Debug().Msg("worker started")

	for {
		item, ok := w.queue.Pop()
		if !ok {
			w.stop(nil)
			return
		}

		if item.IsJob() {
			w.execute(ctx, *item.Job)
			continue
		}

		switch item.Signal {
		case job.Shutdown:
			w.stop(w.queue.Close())
			return
		case job.EnableControls:
			w.logger.Debug().Str("batch_id", item.BatchID).Msg("batch drained")
			if w.onBatchDone != nil {
				w.onBatchDone(item.BatchID)
			}
		default:
			w.logger.Warn().Stringer("signal", item.Signal).Msg("ignoring unknown signal")
		}
	}
}

func (w *Worker) stop(dropped []job.Item) {
	if len(dropped) > 0 {
		w.logger.Warn().Int("dropped", len(dropped)).Msg("shutdown with items still queued")
	}
	w.logger.Debug().Msg("worker stopped")
	if w.onStop != nil {
		w.onStop(dropped)
	}
}

// execute runs one job to completion and reports it.
func (w *Worker) execute(ctx context.Context, req job.Request) {
	log := w.logger.With().
		Str("job_id", req.ID).
		Str("package", req.PackageID).
		Stringer("kind", req.Kind).
		Logger()

	if w.onStart != nil {
		w.onStart(req)
	}
	log.Info().Msg("job started")

	var lines []string
	sink := func(line string) {
		lines = append(lines, line)
		if w.onOutput != nil {
			w.onOutput(req, line)
		}
	}

	start := time.Now()
	res := w.runSafely(ctx, req, sink)
	res.Job = req
	res.Output = lines
	res.Started = start
	res.Duration = time.Since(start)

	var event *zerolog.Event
	if res.OK() {
		event = log.Info()
	} else {
		event = log.Warn().Err(res.Err).Int("exit_code", res.ExitCode)
	}
	event.Stringer("outcome", res.Outcome).Dur("took", res.Duration).Msg("job finished")

	if w.onComplete != nil {
		w.onComplete(res)
	}
}

// runSafely applies the timeout and turns a runner panic into a failed
// result so one bad job cannot take the loop down.
func (w *Worker) runSafely(ctx context.Context, req job.Request, sink LineSink) (res job.Result) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("runner panic: %v", r)
			sink(err.Error())
			res = job.Result{Outcome: job.FailedLaunch, ExitCode: -1, Err: err}
		}
	}()

	return w.runner.Run(ctx, req, sink)
}
