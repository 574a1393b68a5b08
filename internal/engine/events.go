package engine

import (
	"time"

	"github.com/lmeunier/resonance/internal/queue"
)

// Event is the tagged union emitted by the engine on its event channel.
// Events are produced once and never mutated after emission; the consumer
// (typically a playback coordinator) processes each exactly once.
type Event interface {
	playbackEvent()
}

// SongChanged is emitted when a new song has been loaded for playback.
type SongChanged struct {
	Item queue.Item
}

// StateChanged is emitted on every playback state transition.
type StateChanged struct {
	State State
}

// PositionChanged is emitted on seeks and, while Playing, on a fixed
// one-second cadence by the position ticker.
type PositionChanged struct {
	Position time.Duration
}

// EndOfStream is emitted when the current source ends naturally.
type EndOfStream struct{}

// Error is emitted when a playback operation fails asynchronously, or in
// addition to the returned error for Play so subscribers that did not
// initiate the call still learn of the failure.
type Error struct {
	Message string
}

func (SongChanged) playbackEvent()     {}
func (StateChanged) playbackEvent()    {}
func (PositionChanged) playbackEvent() {}
func (EndOfStream) playbackEvent()     {}
func (Error) playbackEvent()           {}
