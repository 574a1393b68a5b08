package appstate

import (
	"github.com/lmeunier/resonance/internal/engine"
	"github.com/lmeunier/resonance/internal/queue"
)

const eventBufferSize = 16

// Subscription provides event channels for one observer. Events are dropped
// rather than blocking the coordinators when a subscriber falls behind; the
// latest full state is always available from the Store getters.
type Subscription struct {
	QueueChanged <-chan queue.Snapshot
	StateChanged <-chan engine.State
	TrackChanged <-chan *queue.Item
	Done         <-chan struct{}

	// Internal write channels
	queueCh chan queue.Snapshot
	stateCh chan engine.State
	trackCh chan *queue.Item
	doneCh  chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		queueCh: make(chan queue.Snapshot, eventBufferSize),
		stateCh: make(chan engine.State, eventBufferSize),
		trackCh: make(chan *queue.Item, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.QueueChanged = s.queueCh
	s.StateChanged = s.stateCh
	s.TrackChanged = s.trackCh
	s.Done = s.doneCh
	return s
}

// close signals the subscriber to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) sendQueue(snap queue.Snapshot) {
	select {
	case s.queueCh <- snap:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendState(st engine.State) {
	select {
	case s.stateCh <- st:
	default:
	}
}

func (s *Subscription) sendTrack(item *queue.Item) {
	select {
	case s.trackCh <- item:
	default:
	}
}
