package playback

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lmeunier/resonance/internal/engine"
	"github.com/lmeunier/resonance/internal/queue"
)

type controlKind int

const (
	controlSetQueue controlKind = iota
	controlNextTrack
	controlPreviousTrack
)

// controlMessage is one of exactly three queue commands, processed one at a
// time by the control loop.
type controlMessage struct {
	kind  controlKind
	items []queue.Item
}

// QueueManager coordinates the playback queue for concurrent callers. All
// mutation funnels through one control mailbox consumed by a single
// goroutine, so no two mutations can interleave; the queue itself sits
// behind a reader/writer lock only to let Queue() take consistent snapshots
// while the loop writes.
//
// A second goroutine listens for the engine's track-finished signal and
// auto-advances through the same next-track path as an explicit NextTrack
// command, so automatic and manual advance share one set of edge-case
// behaviors: at either end of the queue navigation is a silent no-op.
//
// The public navigation methods only enqueue; they return before the
// mutation runs. Callers that need to observe the result subscribe to the
// state sink or poll Queue().
type QueueManager struct {
	mu    sync.RWMutex
	queue *queue.Queue

	engine engine.Interface
	sink   StateSink

	control *mailbox[controlMessage]
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewQueueManager creates a queue manager and starts its control and
// auto-advance loops. Close must be called to stop them.
func NewQueueManager(eng engine.Interface, sink StateSink) *QueueManager {
	m := &QueueManager{
		queue:   queue.New(),
		engine:  eng,
		sink:    sink,
		control: newMailbox[controlMessage](),
		done:    make(chan struct{}),
	}

	m.wg.Add(2)
	go m.controlLoop()
	go m.autoAdvanceLoop()
	return m
}

// SetQueue replaces the queue with tracks. The cursor resets to the first
// track, or to none for an empty list.
func (m *QueueManager) SetQueue(items []queue.Item) {
	if !m.control.put(controlMessage{kind: controlSetQueue, items: items}) {
		log.Debug().Msg("queue manager: SetQueue after close, dropping")
	}
}

// NextTrack navigates to the next track. A no-op at the end of the queue.
func (m *QueueManager) NextTrack() {
	if !m.control.put(controlMessage{kind: controlNextTrack}) {
		log.Debug().Msg("queue manager: NextTrack after close, dropping")
	}
}

// PreviousTrack navigates to the previous track. A no-op at the start.
func (m *QueueManager) PreviousTrack() {
	if !m.control.put(controlMessage{kind: controlPreviousTrack}) {
		log.Debug().Msg("queue manager: PreviousTrack after close, dropping")
	}
}

// Queue returns a consistent snapshot of the queue. It may trail a command
// that was enqueued but not yet processed.
func (m *QueueManager) Queue() queue.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queue.Snapshot()
}

// Close stops both loops. Control messages already enqueued are processed
// before Close returns; auto-advance signals are not.
func (m *QueueManager) Close() error {
	m.control.close()
	close(m.done)
	m.wg.Wait()
	return nil
}

// controlLoop is the single consumer serializing all queue mutation.
func (m *QueueManager) controlLoop() {
	defer m.wg.Done()

	for {
		msg, ok := m.control.get()
		if !ok {
			return
		}
		switch msg.kind {
		case controlSetQueue:
			m.handleSetQueue(msg.items)
		case controlNextTrack:
			m.handleNextTrack()
		case controlPreviousTrack:
			m.handlePreviousTrack()
		}
	}
}

// autoAdvanceLoop turns each track-finished signal into the same transition
// as an explicit NextTrack command.
func (m *QueueManager) autoAdvanceLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return
		case <-m.engine.FinishedChan():
			log.Debug().Msg("queue manager: track finished, auto-advancing")
			m.handleNextTrack()
		}
	}
}

func (m *QueueManager) handleSetQueue(items []queue.Item) {
	log.Debug().Int("tracks", len(items)).Msg("queue manager: setting new queue")

	m.mu.Lock()
	m.queue.Replace(items, 0, 0)
	m.mu.Unlock()

	m.broadcastQueue()
}

func (m *QueueManager) handleNextTrack() {
	m.mu.RLock()
	if m.queue.IsEmpty() || m.queue.CurrentIndex() < 0 || !m.queue.CanGoNext() {
		m.mu.RUnlock()
		log.Debug().Msg("queue manager: at end of queue, no next track")
		return
	}
	nextIndex := m.queue.CurrentIndex() + 1
	next := *m.queue.Item(nextIndex)
	m.mu.RUnlock()

	m.playTrack(next, nextIndex)
}

func (m *QueueManager) handlePreviousTrack() {
	m.mu.RLock()
	if m.queue.IsEmpty() || m.queue.CurrentIndex() <= 0 {
		m.mu.RUnlock()
		log.Debug().Msg("queue manager: at beginning of queue, no previous track")
		return
	}
	prevIndex := m.queue.CurrentIndex() - 1
	prev := *m.queue.Item(prevIndex)
	m.mu.RUnlock()

	m.playTrack(prev, prevIndex)
}

// playTrack loads and plays item, then commits the new cursor and notifies
// the sink. Engine calls happen inside the control-loop task, so they are
// serialized relative to queue mutation: a second command arriving during
// load+play queues behind it.
func (m *QueueManager) playTrack(item queue.Item, newIndex int) {
	if err := m.engine.Load(item.Path); err != nil {
		log.Debug().Err(err).Str("path", item.Path).Msg("queue manager: failed to load track")
		return
	}
	if err := m.engine.Play(); err != nil {
		log.Debug().Err(err).Str("path", item.Path).Msg("queue manager: failed to play track")
		return
	}

	m.mu.Lock()
	m.queue.MoveTo(newIndex)
	m.mu.Unlock()

	m.sink.UpdatePlaybackState(engine.Playing)
	m.sink.UpdateCurrentTrack(&item)
	m.broadcastQueue()
}

func (m *QueueManager) broadcastQueue() {
	m.mu.RLock()
	snap := m.queue.Snapshot()
	m.mu.RUnlock()

	m.sink.UpdateQueue(snap)
}
