package scheduler

import "github.com/zurustar/takt/pkg/playback"

// reclaimer defers destruction of sounds that were logically stopped while
// scan structures may still reference them by identity. flush runs once per
// tick, after every scan, so no reference to a destroyed sound survives the
// tick boundary in which it was invalidated.
type reclaimer struct {
	doomed []playback.Sound
}

// scheduleDelete marks a sound for destruction at the end of the tick.
// Scheduling the same sound twice has no additional effect.
func (r *reclaimer) scheduleDelete(snd playback.Sound) {
	if snd == nil {
		return
	}
	for _, d := range r.doomed {
		if d == snd {
			return
		}
	}
	r.doomed = append(r.doomed, snd)
}

// flush stops and destroys every scheduled sound and clears the set.
func (r *reclaimer) flush() {
	for _, snd := range r.doomed {
		snd.Stop()
		snd.Destroy()
	}
	r.doomed = r.doomed[:0]
}
