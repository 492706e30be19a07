// Package transport implements the musical transport clock.
//
// The clock does not tick on its own. It reconstructs the current beat
// position lazily from wall-clock elapsed time: a (baseBeat, anchorTime)
// pair is frozen at every transition (play, pause, stop, tempo change) and
// the live position is baseBeat plus the beats elapsed since the anchor at
// the current tempo. Re-anchoring on every transition keeps the beat value
// continuous, so pausing, resuming or retuning never causes a phase jump.
package transport

import (
	"errors"
	"time"
)

// DefaultTempo is the tempo a new clock starts with, in beats per minute.
const DefaultTempo = 120.0

// ErrInvalidTempo is returned when a tempo change is requested with a
// non-positive BPM value.
var ErrInvalidTempo = errors.New("tempo must be positive")

// Clock converts wall-clock elapsed time into a musical beat position.
//
// Clock is not safe for concurrent use; the scheduler serializes access to
// it under its own critical section. Keeping the clock lock-free lets
// operations that already hold that section call CurrentBeat without
// re-entrant locking.
type Clock struct {
	playing  bool
	tempo    float64 // beats per minute, always > 0
	baseBeat float64 // beat value frozen at the last anchor point
	anchor   time.Time
	now      func() time.Time
}

// NewClock creates a stopped clock at the given tempo.
// A non-positive bpm falls back to DefaultTempo.
func NewClock(bpm float64) *Clock {
	return NewClockWithNow(bpm, time.Now)
}

// NewClockWithNow creates a clock with an injected time source.
// Tests use this to advance time deterministically.
func NewClockWithNow(bpm float64, now func() time.Time) *Clock {
	if bpm <= 0 {
		bpm = DefaultTempo
	}
	return &Clock{
		tempo: bpm,
		now:   now,
	}
}

// Playing reports whether the clock is advancing.
func (c *Clock) Playing() bool {
	return c.playing
}

// Tempo returns the current tempo in beats per minute.
func (c *Clock) Tempo() float64 {
	return c.tempo
}

// Play starts the clock advancing from its current beat position.
// Calling Play on a clock that is already playing is a no-op, so the
// phase is preserved.
func (c *Clock) Play() {
	if c.playing {
		return
	}
	c.anchor = c.now()
	c.playing = true
}

// Pause freezes the clock at its current beat position. Idempotent.
func (c *Clock) Pause() {
	if !c.playing {
		return
	}
	c.baseBeat = c.CurrentBeat()
	c.playing = false
}

// Stop halts the clock and resets the beat position to zero.
// Unlike Pause, Stop always rewinds to the origin.
func (c *Clock) Stop() {
	c.playing = false
	c.baseBeat = 0
}

// SetTempo changes the tempo, preserving the current beat position.
// The beat value immediately before and after the call is identical; only
// the rate of future advance changes. Returns ErrInvalidTempo for a
// non-positive bpm, leaving the clock untouched.
func (c *Clock) SetTempo(bpm float64) error {
	if bpm <= 0 {
		return ErrInvalidTempo
	}
	// Capture the position under the old tempo before switching.
	c.baseBeat = c.CurrentBeat()
	c.tempo = bpm
	if c.playing {
		c.anchor = c.now()
	}
	return nil
}

// CurrentBeat returns the current beat position.
// While paused or stopped this is the frozen base beat; while playing it is
// the base beat plus the beats elapsed since the anchor.
func (c *Clock) CurrentBeat() float64 {
	if !c.playing {
		return c.baseBeat
	}
	elapsed := c.now().Sub(c.anchor).Seconds()
	return c.baseBeat + elapsed*c.tempo/60.0
}
