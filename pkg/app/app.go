// Package app wires the takt demo host together: CLI parsing, logging,
// the playback system, the scheduler and the per-frame tick loop.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zurustar/takt/pkg/cli"
	"github.com/zurustar/takt/pkg/logger"
	"github.com/zurustar/takt/pkg/playback"
	"github.com/zurustar/takt/pkg/scheduler"
)

// Application is the demo host main logic.
type Application struct {
	config *cli.Config
	log    *slog.Logger
	sched  *scheduler.Scheduler
}

// New creates an Application.
func New() *Application {
	return &Application{}
}

// Run executes the host: parse arguments, initialize the scheduler, load
// and start the song if one was given, then drive Tick once per frame
// until the window closes or the timeout expires.
func (app *Application) Run(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = config

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()
	app.log.Info("takt started")

	system := playback.NewSystem(nil)
	system.SetMuted(app.config.Headless)

	app.sched = scheduler.New(system)
	if err := app.sched.Init(); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	defer app.sched.Shutdown()

	if app.config.SongPath != "" {
		if err := app.sched.SongLoad(app.config.SongPath); err != nil {
			return fmt.Errorf("failed to load song: %w", err)
		}
		if app.config.Tempo > 0 {
			if err := app.sched.SetTempo(app.config.Tempo); err != nil {
				return fmt.Errorf("failed to set tempo: %w", err)
			}
		}
		if err := app.sched.SongPlay(); err != nil {
			return fmt.Errorf("failed to start song: %w", err)
		}
	} else {
		if err := app.sched.TransportPlay(); err != nil {
			return fmt.Errorf("failed to start transport: %w", err)
		}
	}

	if app.config.Headless {
		return app.runHeadless()
	}
	return app.runWindow()
}

// runWindow drives the tick from the Ebitengine game loop.
func (app *Application) runWindow() error {
	ebiten.SetWindowSize(320, 120)
	ebiten.SetWindowTitle("takt")

	game := newGame(app.sched, app.config.Timeout)
	if err := ebiten.RunGame(game); err != nil {
		return fmt.Errorf("game loop failed: %w", err)
	}
	return nil
}

// runHeadless drives the tick from a 60 Hz timer.
func (app *Application) runHeadless() error {
	app.log.Info("headless mode", "timeout", app.config.Timeout)

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if app.config.Timeout > 0 {
		timer := time.NewTimer(app.config.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ticker.C:
			if err := app.sched.Tick(); err != nil {
				return fmt.Errorf("tick failed: %w", err)
			}
		case <-deadline:
			app.log.Info("timeout reached, terminating")
			return nil
		}
	}
}
