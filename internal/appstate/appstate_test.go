package appstate

import (
	"testing"
	"time"

	"github.com/lmeunier/resonance/internal/engine"
	"github.com/lmeunier/resonance/internal/queue"
)

func TestStore_InitialState(t *testing.T) {
	s := New()
	defer s.Close()

	if snap := s.Queue(); snap.CurrentIndex != -1 || len(snap.Items) != 0 {
		t.Errorf("initial queue = %+v, want empty with index -1", snap)
	}
	if st := s.PlaybackState(); st != engine.Stopped {
		t.Errorf("initial state = %v, want Stopped", st)
	}
	if tr := s.CurrentTrack(); tr != nil {
		t.Errorf("initial track = %+v, want nil", tr)
	}
}

func TestStore_UpdatesVisibleToGetters(t *testing.T) {
	s := New()
	defer s.Close()

	s.UpdateQueue(queue.Snapshot{
		Items:        []queue.Item{{TrackID: 1, Title: "Roygbiv"}},
		CurrentIndex: 0,
	})
	s.UpdatePlaybackState(engine.Playing)
	s.UpdateCurrentTrack(&queue.Item{TrackID: 1, Title: "Roygbiv"})

	if snap := s.Queue(); snap.CurrentIndex != 0 || len(snap.Items) != 1 {
		t.Errorf("queue = %+v, want one item at index 0", snap)
	}
	if st := s.PlaybackState(); st != engine.Playing {
		t.Errorf("state = %v, want Playing", st)
	}
	tr := s.CurrentTrack()
	if tr == nil || tr.Title != "Roygbiv" {
		t.Errorf("track = %+v, want Roygbiv", tr)
	}
}

func TestStore_CurrentTrack_ReturnsCopy(t *testing.T) {
	s := New()
	defer s.Close()

	s.UpdateCurrentTrack(&queue.Item{TrackID: 1, Title: "Original"})

	got := s.CurrentTrack()
	got.Title = "Mutated"

	if tr := s.CurrentTrack(); tr.Title != "Original" {
		t.Errorf("stored track mutated through getter copy: %q", tr.Title)
	}
}

func TestStore_Subscribe_ReceivesUpdates(t *testing.T) {
	s := New()
	defer s.Close()
	sub := s.Subscribe()

	s.UpdatePlaybackState(engine.Paused)
	select {
	case st := <-sub.StateChanged:
		if st != engine.Paused {
			t.Errorf("state event = %v, want Paused", st)
		}
	case <-time.After(time.Second):
		t.Fatal("no state event delivered")
	}

	s.UpdateQueue(queue.Snapshot{CurrentIndex: -1})
	select {
	case <-sub.QueueChanged:
	case <-time.After(time.Second):
		t.Fatal("no queue event delivered")
	}

	s.UpdateCurrentTrack(nil)
	select {
	case tr := <-sub.TrackChanged:
		if tr != nil {
			t.Errorf("track event = %+v, want nil", tr)
		}
	case <-time.After(time.Second):
		t.Fatal("no track event delivered")
	}
}

func TestStore_SlowSubscriber_DoesNotBlock(t *testing.T) {
	s := New()
	defer s.Close()
	sub := s.Subscribe()

	// Overflow the buffer; updates must keep going without a reader.
	for i := 0; i < eventBufferSize*2; i++ {
		s.UpdatePlaybackState(engine.Playing)
	}

	if st := s.PlaybackState(); st != engine.Playing {
		t.Errorf("state = %v, want Playing", st)
	}
	if n := len(sub.StateChanged); n != eventBufferSize {
		t.Errorf("buffered events = %d, want %d", n, eventBufferSize)
	}
}

func TestStore_Close_SignalsSubscribers(t *testing.T) {
	s := New()
	sub := s.Subscribe()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case <-sub.Done:
	case <-time.After(time.Second):
		t.Fatal("Done not closed")
	}

	// Closing twice is fine, and late subscribers get an already-done
	// subscription.
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	late := s.Subscribe()
	select {
	case <-late.Done:
	case <-time.After(time.Second):
		t.Fatal("late subscription not done")
	}
}
