package events

import (
	"sync"
)

type subscription struct {
	ch       chan Event
	quit     chan struct{}
	quitOnce sync.Once

	closed bool // guarded by Broker.mu
}

func (s *subscription) stop() {
	s.quitOnce.Do(func() { close(s.quit) })
}

// closeLocked closes ch once. The caller holds Broker.mu for writing.
func (s *subscription) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Broker fans events out to subscribers.
//
// Unlike a lossy notifier, Publish waits for room in each subscriber's
// buffer so no job output is dropped. Unsubscribe and Close release
// blocked publishers.
type Broker struct {
	subscribers map[Type][]*subscription
	mu          sync.RWMutex
	bufferSize  int

	done      chan struct{}
	closeOnce sync.Once

	// Keyed by the receive side handed out by Subscribe.
	byChan   map[<-chan Event]*subscription
	byChanMu sync.Mutex
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Type][]*subscription),
		bufferSize:  256,
		done:        make(chan struct{}),
		byChan:      make(map[<-chan Event]*subscription),
	}
}

// Subscribe creates a subscription to specific event types; none means all.
func (b *Broker) Subscribe(eventTypes ...Type) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{
		ch:   make(chan Event, b.bufferSize),
		quit: make(chan struct{}),
	}
	select {
	case <-b.done:
		sub.closeLocked()
		return sub.ch
	default:
	}

	if len(eventTypes) == 0 {
		eventTypes = []Type{"*"}
	}
	for _, eventType := range eventTypes {
		b.subscribers[eventType] = append(b.subscribers[eventType], sub)
	}

	b.byChanMu.Lock()
	b.byChan[sub.ch] = sub
	b.byChanMu.Unlock()
	return sub.ch
}

// Unsubscribe removes a subscription from every type and closes it.
// Events not yet received are discarded.
func (b *Broker) Unsubscribe(ch <-chan Event) {
	b.byChanMu.Lock()
	sub, ok := b.byChan[ch]
	delete(b.byChan, ch)
	b.byChanMu.Unlock()
	if !ok {
		return
	}

	// Wake a publisher blocked on this subscriber before taking the lock.
	sub.stop()

	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscribers {
		kept := subs[:0]
		for _, s := range subs {
			if s != sub {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(b.subscribers, eventType)
		} else {
			b.subscribers[eventType] = kept
		}
	}
	sub.closeLocked()
}

// Publish delivers event to every matching subscriber in order. It blocks
// while a subscriber's buffer is full and returns false once the broker
// is closed.
func (b *Broker) Publish(event Event) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return false
	default:
	}

	targets := make([]*subscription, 0, len(b.subscribers[event.Type])+len(b.subscribers["*"]))
	targets = append(targets, b.subscribers[event.Type]...)
	targets = append(targets, b.subscribers["*"]...)
	for _, sub := range targets {
		select {
		case sub.ch <- event:
		case <-sub.quit:
		case <-b.done:
			return false
		}
	}
	return true
}

// Close wakes blocked publishers and closes every subscription.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.done) })

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, subs := range b.subscribers {
		for _, sub := range subs {
			sub.closeLocked()
		}
	}
	b.subscribers = make(map[Type][]*subscription)
}

// Done is closed once Close has been called.
func (b *Broker) Done() <-chan struct{} { return b.done }
