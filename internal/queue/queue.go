package queue

import (
	"errors"
	"sync"

	"github.com/billie-coop/pickpack/internal/job"
)

// ErrClosed is returned by Push after the worker has shut down.
var ErrClosed = errors.New("queue closed")

// Queue is a thread-safe, unbounded FIFO of jobs and control signals.
// Push never blocks; Pop blocks until an item is available.
//
// Used by: coordinator (pushes), Worker (pops)
// Thread-safe: Yes (all operations lock)
type Queue struct {
	items  []job.Item
	closed bool
	mutex  sync.Mutex
	cond   *sync.Cond
}

// New creates an empty queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mutex)
	return q
}

// Push appends an item to the tail and wakes the worker.
func (q *Queue) Push(item job.Item) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, item)
	q.cond.Signal()
	return nil
}

// Pop removes and returns the head item, waiting while the queue is empty.
// ok is false once the queue is closed and drained.
func (q *Queue) Pop() (item job.Item, ok bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return job.Item{}, false
	}
	return q.shift(), true
}

// Close rejects further pushes, drops anything still queued and
// returns the dropped items.
func (q *Queue) Close() []job.Item {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	dropped := q.items
	q.items = nil
	q.closed = true
	q.cond.Broadcast()
	return dropped
}

// Len returns the number of queued jobs. Control signals are not counted.
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	n := 0
	for _, item := range q.items {
		if item.IsJob() {
			n++
		}
	}
	return n
}

// shift pops the head; caller holds the lock.
func (q *Queue) shift() job.Item {
	item := q.items[0]
	q.items[0] = job.Item{}
	q.items = q.items[1:]
	return item
}
