// Package queue serializes package-manager invocations on one worker goroutine.
//
// # Overview
//
// Package managers are not safe to drive concurrently, and the UI assumes one
// job at a time for its progress and log panels. This package provides:
//   - An unbounded FIFO that never blocks the producer
//   - A single consumer that executes jobs strictly in enqueue order
//   - Sentinel signals interleaved with jobs (EnableControls, Shutdown)
//
// # Architecture
//
//   - Queue: thread-safe FIFO of job.Item (job or signal)
//   - Worker: pops items and runs jobs through a Runner, firing callbacks
//   - Runner: executes one job; launch failures are results, not errors
//
// # Shutdown
//
// Shutdown takes effect when it reaches the head of the queue. Anything
// queued behind it is discarded without running.
//
// # Example
//
//	q := queue.New()
//	w := queue.NewWorker(q, runner)
//	w.OnComplete(func(r job.Result) { ... })
//	w.Start(ctx)
//
//	q.Push(job.JobItem(req))
//	q.Push(job.SignalItem(job.EnableControls, batchID))
//	q.Push(job.SignalItem(job.Shutdown, ""))
//	<-w.Done()
package queue
