package playback

import "sync"

// mailbox is an unbounded FIFO with a single consumer. Sends never block and
// are delivered strictly in send order; the unbounded buffer trades memory
// growth for never stalling a sender, matching the control-channel contract
// of the queue manager.
type mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	signal chan struct{}
	closed bool
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{signal: make(chan struct{}, 1)}
}

// put appends v and wakes the consumer. Returns false if the mailbox is
// closed.
func (m *mailbox[T]) put(v T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, v)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
	return true
}

// get blocks until an item is available or the mailbox is closed and
// drained. Pending items are still delivered after close.
func (m *mailbox[T]) get() (T, bool) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			v := m.items[0]
			m.items = m.items[1:]
			m.mu.Unlock()
			return v, true
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			var zero T
			return zero, false
		}
		<-m.signal
	}
}

// close stops accepting new items and wakes the consumer so it can drain
// the remainder and exit.
func (m *mailbox[T]) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}
