package playback

import (
	"github.com/lmeunier/resonance/internal/engine"
	"github.com/lmeunier/resonance/internal/queue"
)

// StateSink receives fire-and-forget notifications after every accepted
// queue mutation or playback transition. The sink holds no ownership over
// the coordinators; it is purely a notification target whose own lifetime
// is managed independently (typically an observable application state store
// fanning out to UI subscribers).
type StateSink interface {
	UpdateQueue(queue.Snapshot)
	UpdatePlaybackState(engine.State)
	UpdateCurrentTrack(*queue.Item)
}

// NopSink discards all notifications.
type NopSink struct{}

func (NopSink) UpdateQueue(queue.Snapshot)       {}
func (NopSink) UpdatePlaybackState(engine.State) {}
func (NopSink) UpdateCurrentTrack(*queue.Item)   {}
