// Package appstate holds the shared application state fed by the playback
// coordinators and observed by presentation code.
package appstate

import (
	"sync"

	"github.com/lmeunier/resonance/internal/engine"
	"github.com/lmeunier/resonance/internal/playback"
	"github.com/lmeunier/resonance/internal/queue"
)

// Store is the application's observable state: the last queue snapshot,
// playback state and current track pushed by the coordinators. Writers
// replace whole values; readers get copies. Observers that need push
// delivery use Subscribe.
type Store struct {
	mu            sync.RWMutex
	queue         queue.Snapshot
	playbackState engine.State
	currentTrack  *queue.Item

	subsMu sync.Mutex
	subs   []*Subscription
	closed bool
}

var _ playback.StateSink = (*Store)(nil)

func New() *Store {
	return &Store{
		queue: queue.Snapshot{CurrentIndex: -1},
	}
}

// UpdateQueue replaces the queue snapshot.
func (s *Store) UpdateQueue(snap queue.Snapshot) {
	s.mu.Lock()
	s.queue = snap
	s.mu.Unlock()

	s.broadcast(func(sub *Subscription) { sub.sendQueue(snap) })
}

// UpdatePlaybackState replaces the playback state.
func (s *Store) UpdatePlaybackState(st engine.State) {
	s.mu.Lock()
	s.playbackState = st
	s.mu.Unlock()

	s.broadcast(func(sub *Subscription) { sub.sendState(st) })
}

// UpdateCurrentTrack replaces the current track. A nil item means nothing
// is current.
func (s *Store) UpdateCurrentTrack(item *queue.Item) {
	var cp *queue.Item
	if item != nil {
		v := *item
		cp = &v
	}

	s.mu.Lock()
	s.currentTrack = cp
	s.mu.Unlock()

	s.broadcast(func(sub *Subscription) { sub.sendTrack(cp) })
}

// Queue returns the last queue snapshot.
func (s *Store) Queue() queue.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue
}

// PlaybackState returns the last playback state.
func (s *Store) PlaybackState() engine.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playbackState
}

// CurrentTrack returns a copy of the current track, nil if none.
func (s *Store) CurrentTrack() *queue.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentTrack == nil {
		return nil
	}
	v := *s.currentTrack
	return &v
}

// Subscribe creates a new event subscription. Subscribing after Close
// returns an already-done subscription.
func (s *Store) Subscribe() *Subscription {
	sub := newSubscription()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		sub.close()
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// Close signals all subscriptions.
func (s *Store) Close() error {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	return nil
}

func (s *Store) broadcast(send func(*Subscription)) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, sub := range s.subs {
		send(sub)
	}
}
