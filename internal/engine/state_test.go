package engine

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Stopped, "Stopped"},
		{Playing, "Playing"},
		{Paused, "Paused"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_IsActive(t *testing.T) {
	if Stopped.IsActive() {
		t.Error("Stopped.IsActive() = true, want false")
	}
	if !Playing.IsActive() {
		t.Error("Playing.IsActive() = false, want true")
	}
	if !Paused.IsActive() {
		t.Error("Paused.IsActive() = false, want true")
	}
}
