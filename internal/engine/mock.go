package engine

import (
	"sync"
	"time"
)

// Mock is a test double for the engine adapter. It records every call,
// transitions state like the real engine, and lets tests emit events and
// simulate natural track completion. All methods are safe for concurrent
// use, since coordinators may drive the engine from background goroutines
// while the test inspects it.
type Mock struct {
	mu     sync.Mutex
	events chan<- Event

	state    State
	path     string
	position time.Duration
	duration time.Duration
	haveDur  bool

	loadErr error
	playErr error

	loadCalls  []string
	playCalls  int
	pauseCalls int
	stopCalls  int
	seekCalls  []time.Duration

	finishedCh chan struct{}
}

// NewMock creates a mock engine emitting events on the given channel.
// A nil channel is allowed; events are then discarded.
func NewMock(events chan<- Event) *Mock {
	return &Mock{
		events:     events,
		state:      Stopped,
		finishedCh: make(chan struct{}, 1),
	}
}

func (m *Mock) Load(path string) error {
	m.mu.Lock()
	m.loadCalls = append(m.loadCalls, path)
	if err := m.loadErr; err != nil {
		m.mu.Unlock()
		return err
	}
	m.path = path
	m.state = Stopped
	m.mu.Unlock()

	m.Emit(StateChanged{State: Stopped})
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	m.playCalls++
	if err := m.playErr; err != nil {
		m.mu.Unlock()
		m.Emit(Error{Message: err.Error()})
		return err
	}
	m.state = Playing
	m.mu.Unlock()

	m.Emit(StateChanged{State: Playing})
	return nil
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	m.pauseCalls++
	paused := false
	if m.state == Playing {
		m.state = Paused
		paused = true
	}
	m.mu.Unlock()

	if paused {
		m.Emit(StateChanged{State: Paused})
	}
	return nil
}

func (m *Mock) Stop() error {
	m.mu.Lock()
	m.stopCalls++
	m.state = Stopped
	m.mu.Unlock()

	m.Emit(StateChanged{State: Stopped})
	return nil
}

func (m *Mock) Seek(pos time.Duration) error {
	m.mu.Lock()
	m.seekCalls = append(m.seekCalls, pos)
	m.position = pos
	m.mu.Unlock()

	m.Emit(PositionChanged{Position: pos})
	return nil
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Position() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		return 0, false
	}
	return m.position, true
}

func (m *Mock) Duration() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration, m.haveDur
}

func (m *Mock) FinishedChan() <-chan struct{} {
	return m.finishedCh
}

func (m *Mock) Close() error { return nil }

// Emit sends an event without blocking, dropping it if nobody listens.
func (m *Mock) Emit(ev Event) {
	if m.events == nil {
		return
	}
	select {
	case m.events <- ev:
	default:
	}
}

// Test helpers

func (m *Mock) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
	m.haveDur = true
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.loadCalls))
	copy(calls, m.loadCalls)
	return calls
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]time.Duration, len(m.seekCalls))
	copy(calls, m.seekCalls)
	return calls
}

// SimulateFinished signals natural completion of the current source, exactly
// like the real engine: an EndOfStream event plus a finished signal.
func (m *Mock) SimulateFinished() {
	m.mu.Lock()
	m.state = Stopped
	m.mu.Unlock()

	m.Emit(EndOfStream{})
	select {
	case m.finishedCh <- struct{}{}:
	default:
	}
}
