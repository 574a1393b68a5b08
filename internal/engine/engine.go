package engine

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// positionUpdateInterval is the cadence of PositionChanged events while
// Playing.
const positionUpdateInterval = time.Second

const eventBufferSize = 128

var (
	speakerMu          sync.Mutex
	speakerInitialized bool
)

// Engine adapts the beep decode/render pipeline to the playback coordinators.
// It exposes synchronous-looking operations that may block briefly on the
// speaker, and asynchronously emits Events on the channel given to New.
//
// The speaker mixes on its own goroutine and invokes the end-of-source
// callback there, so all mutable state is guarded by mu.
type Engine struct {
	mu sync.Mutex

	events chan<- Event
	clock  clockwork.Clock

	state    State
	path     string
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl

	// started is true once speaker.Play was issued for the current source.
	started bool
	// gen increments on every Load/Stop so a stale end-of-source callback
	// from a replaced source is ignored.
	gen uint64

	// tickerStop is non-nil exactly while the position ticker runs. The
	// ticker is cancelled before any transition away from Playing.
	tickerStop chan struct{}

	finishedCh chan struct{}

	bufferLen time.Duration
}

// defaultBufferLen is the speaker buffer length when none is configured.
// Shorter means snappier pause/seek, longer survives scheduling hiccups.
const defaultBufferLen = 100 * time.Millisecond

// New creates an engine emitting events on the given channel.
func New(events chan<- Event) *Engine {
	return NewWithClock(events, clockwork.NewRealClock())
}

// NewWithClock creates an engine with an injected clock for the position
// ticker. Tests use a fake clock to drive ticks deterministically.
func NewWithClock(events chan<- Event, clock clockwork.Clock) *Engine {
	return &Engine{
		events:     events,
		clock:      clock,
		state:      Stopped,
		finishedCh: make(chan struct{}, 1),
		bufferLen:  defaultBufferLen,
	}
}

// SetBufferLen sets the speaker buffer length. Takes effect on the first
// Play; the speaker is initialized once per process.
func (e *Engine) SetBufferLen(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d > 0 {
		e.bufferLen = d
	}
}

// Load prepares path for playback, tearing down any prior source first.
// The state resets to Stopped and StateChanged(Stopped) is emitted.
func (e *Engine) Load(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.teardownLocked()

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".mp3" && ext != ".flac" {
		return &UnsupportedFormatError{Ext: ext}
	}

	f, err := os.Open(path)
	if err != nil {
		return &PipelineError{Op: "load", Err: err}
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	}
	if err != nil {
		f.Close()
		return &PipelineError{Op: "load", Err: err}
	}

	e.path = path
	e.file = f
	e.streamer = streamer
	e.format = format
	e.ctrl = &beep.Ctrl{Streamer: streamer}
	e.state = Stopped
	e.emit(StateChanged{State: Stopped})
	return nil
}

// Play starts playback of the loaded source, or resumes it when Paused.
// A failure is returned to the caller and also emitted as an Error event so
// asynchronous observers learn of it.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		err := &InvalidStateError{Reason: "play with no source loaded"}
		e.emit(Error{Message: err.Error()})
		return err
	}

	switch e.state {
	case Playing:
		return nil
	case Paused:
		speaker.Lock()
		e.ctrl.Paused = false
		speaker.Unlock()
	case Stopped:
		if err := initSpeaker(e.format, e.bufferLen); err != nil {
			err = &PipelineError{Op: "play", Err: err}
			e.emit(Error{Message: err.Error()})
			return err
		}
		gen := e.gen
		speaker.Play(beep.Seq(e.ctrl, beep.Callback(func() {
			e.endOfSource(gen)
		})))
		e.started = true
	}

	e.state = Playing
	e.startTickerLocked()
	e.emit(StateChanged{State: Playing})
	return nil
}

// Pause pauses playback, keeping the current position.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Playing || e.ctrl == nil {
		return nil
	}

	e.stopTickerLocked()
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	e.state = Paused
	e.emit(StateChanged{State: Paused})
	return nil
}

// Stop stops playback and releases the current source.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Stopped && e.streamer == nil {
		return nil
	}

	e.teardownLocked()
	e.emit(StateChanged{State: Stopped})
	return nil
}

// Seek moves playback to pos and emits PositionChanged on success.
func (e *Engine) Seek(pos time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return &InvalidStateError{Reason: "seek with no source loaded"}
	}

	speaker.Lock()
	err := e.streamer.Seek(e.format.SampleRate.N(pos))
	speaker.Unlock()
	if err != nil {
		return &PipelineError{Op: "seek", Err: err}
	}

	e.emit(PositionChanged{Position: pos})
	return nil
}

// State returns the current playback state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Position returns the playback position, or false if no source is loaded.
func (e *Engine) Position() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return 0, false
	}
	speaker.Lock()
	pos := e.format.SampleRate.D(e.streamer.Position())
	speaker.Unlock()
	return pos, true
}

// Duration returns the source duration, or false if no source is loaded.
func (e *Engine) Duration() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return 0, false
	}
	return e.format.SampleRate.D(e.streamer.Len()), true
}

// FinishedChan signals once each time a source ends naturally.
func (e *Engine) FinishedChan() <-chan struct{} {
	return e.finishedCh
}

// Close stops playback and releases resources.
func (e *Engine) Close() error {
	return e.Stop()
}

// teardownLocked cancels the ticker, clears the speaker, and releases the
// current source. Callers must hold mu.
func (e *Engine) teardownLocked() {
	e.stopTickerLocked()
	e.gen++

	if e.started {
		speaker.Clear()
		e.started = false
	}
	if e.streamer != nil {
		if err := e.streamer.Close(); err != nil {
			log.Debug().Err(err).Msg("engine: closing streamer")
		}
		e.streamer = nil
	}
	if e.file != nil {
		e.file.Close()
		e.file = nil
	}
	e.ctrl = nil
	e.path = ""
	e.state = Stopped
}

// endOfSource fires on the speaker goroutine when the source drains. The
// speaker mutex is held at that point, and every engine method takes mu
// before the speaker mutex, so taking mu here would invert the lock order
// and deadlock against a concurrent Pause, Seek, Position or teardown.
// Hand off to a fresh goroutine instead; the generation check in
// sourceEnded discards the handoff if a Load or Stop got there first.
func (e *Engine) endOfSource(gen uint64) {
	go e.sourceEnded(gen)
}

func (e *Engine) sourceEnded(gen uint64) {
	e.mu.Lock()
	if gen != e.gen {
		// A Load or Stop already replaced this source.
		e.mu.Unlock()
		return
	}
	e.stopTickerLocked()
	e.state = Stopped
	e.started = false
	e.mu.Unlock()

	e.emit(EndOfStream{})
	select {
	case e.finishedCh <- struct{}{}:
	default:
	}
}

// startTickerLocked starts the position ticker. Callers must hold mu and be
// transitioning into Playing.
func (e *Engine) startTickerLocked() {
	if e.tickerStop != nil {
		return
	}
	stop := make(chan struct{})
	e.tickerStop = stop

	go runPositionTicker(e.clock, stop, e.Position, e.emit)
}

// runPositionTicker emits PositionChanged once per interval until stop
// closes. It runs on its own goroutine while the engine is Playing.
func runPositionTicker(
	clock clockwork.Clock,
	stop <-chan struct{},
	position func() (time.Duration, bool),
	emit func(Event),
) {
	ticker := clock.NewTicker(positionUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			if pos, ok := position(); ok {
				emit(PositionChanged{Position: pos})
			}
		}
	}
}

// stopTickerLocked cancels the position ticker exactly once. Callers must
// hold mu and call this before emitting the new state.
func (e *Engine) stopTickerLocked() {
	if e.tickerStop == nil {
		return
	}
	close(e.tickerStop)
	e.tickerStop = nil
}

// emit sends an event without blocking. A full buffer means the consumer
// stopped draining, in which case the event is dropped.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		log.Debug().Msgf("engine: dropping event %T, buffer full", ev)
	}
}

func initSpeaker(format beep.Format, bufferLen time.Duration) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	if speakerInitialized {
		return nil
	}
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(bufferLen)); err != nil {
		return err
	}
	speakerInitialized = true
	return nil
}

// NewEventChannel returns a channel sized for the engine's event stream.
func NewEventChannel() chan Event {
	return make(chan Event, eventBufferSize)
}
