package engine

import "time"

// Interface defines the engine adapter contract for dependency injection and
// testing. Implementations emit Events on the channel supplied at
// construction and signal natural track completion on FinishedChan.
type Interface interface {
	// Load prepares a new source, tearing down any previous one first.
	// It resets the state to Stopped and emits StateChanged(Stopped).
	Load(path string) error
	// Play starts or resumes playback. On failure the error is both
	// returned and emitted as an Error event.
	Play() error
	Pause() error
	Stop() error
	// Seek moves to the given position and emits PositionChanged on success.
	Seek(pos time.Duration) error
	State() State
	// Position and Duration report false when the value is not yet
	// determinable (no source loaded), which is not an error.
	Position() (time.Duration, bool)
	Duration() (time.Duration, bool)
	// FinishedChan signals once per source that ended naturally.
	FinishedChan() <-chan struct{}
	Close() error
}

// Verify implementations at compile time.
var (
	_ Interface = (*Engine)(nil)
	_ Interface = (*Mock)(nil)
)
