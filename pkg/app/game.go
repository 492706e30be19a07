package app

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zurustar/takt/pkg/scheduler"
)

// Game drives the scheduler from the Ebitengine game loop: one Tick per
// Update call.
type Game struct {
	sched     *scheduler.Scheduler
	timeout   time.Duration
	startTime time.Time
}

func newGame(sched *scheduler.Scheduler, timeout time.Duration) *Game {
	return &Game{
		sched:     sched,
		timeout:   timeout,
		startTime: time.Now(),
	}
}

// Update advances the scheduler by one frame.
func (g *Game) Update() error {
	if g.timeout > 0 && time.Since(g.startTime) >= g.timeout {
		return ebiten.Termination
	}
	return g.sched.Tick()
}

// Draw renders nothing; the host has no visuals.
func (g *Game) Draw(screen *ebiten.Image) {}

// Layout returns the fixed screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return 320, 120
}
