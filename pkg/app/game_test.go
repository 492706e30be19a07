package app

import (
	"errors"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zurustar/takt/pkg/playback"
	"github.com/zurustar/takt/pkg/scheduler"
)

// stubBackend satisfies playback.Backend without touching the audio device.
type stubBackend struct{}

func (stubBackend) CreateFromFile(path string) (playback.Sound, error) {
	return nil, errors.New("not supported")
}

func (stubBackend) CreateInstrument(path string, baseNote int) (playback.Instrument, error) {
	return nil, errors.New("not supported")
}

func newTestGame(t *testing.T, timeout time.Duration) *Game {
	t.Helper()
	sched := scheduler.New(stubBackend{})
	if err := sched.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(sched.Shutdown)
	return newGame(sched, timeout)
}

func TestGameUpdateTicks(t *testing.T) {
	game := newTestGame(t, 0)
	if err := game.Update(); err != nil {
		t.Errorf("Update failed: %v", err)
	}
}

func TestGameUpdateTimeout(t *testing.T) {
	game := newTestGame(t, 10*time.Millisecond)
	game.startTime = time.Now().Add(-time.Second)

	if err := game.Update(); err != ebiten.Termination {
		t.Errorf("Update = %v, want ebiten.Termination", err)
	}
}

func TestGameLayout(t *testing.T) {
	game := newTestGame(t, 0)
	w, h := game.Layout(0, 0)
	if w != 320 || h != 120 {
		t.Errorf("Layout = %dx%d, want 320x120", w, h)
	}
}
