package engine

import (
	"testing"
	"time"
)

// The speaker fires the end-of-source callback while holding its own mutex,
// so the callback must return without touching the engine mutex. Holding mu
// here stands in for a concurrent Pause or Position call mid-critical-section.
func TestEndOfSource_ReturnsWhileEngineLocked(t *testing.T) {
	events := NewEventChannel()
	e := New(events)

	e.mu.Lock()
	returned := make(chan struct{})
	go func() {
		e.endOfSource(e.gen)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		e.mu.Unlock()
		t.Fatal("end-of-source callback blocked on the engine mutex")
	}
	e.mu.Unlock()

	select {
	case <-e.FinishedChan():
	case <-time.After(time.Second):
		t.Fatal("no finished signal after source end")
	}

	select {
	case ev := <-events:
		if _, ok := ev.(EndOfStream); !ok {
			t.Errorf("got %T, want EndOfStream", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no EndOfStream event after source end")
	}

	if got := e.State(); got != Stopped {
		t.Errorf("State() = %v, want Stopped", got)
	}
}

func TestEndOfSource_StaleGenerationIgnored(t *testing.T) {
	events := NewEventChannel()
	e := New(events)

	e.mu.Lock()
	stale := e.gen
	e.gen++
	e.mu.Unlock()

	e.endOfSource(stale)

	select {
	case <-e.FinishedChan():
		t.Error("stale end-of-source produced a finished signal")
	case <-time.After(100 * time.Millisecond):
	}
	select {
	case ev := <-events:
		t.Errorf("stale end-of-source emitted %T", ev)
	default:
	}
}
