package scheduler

import "math"

// pendingLaunch is a sound waiting for its quantized grid beat. The sound
// exists stopped; tick starts it when the target arrives.
type pendingLaunch struct {
	id     int64
	target float64
}

// PlayOnBeat creates a sound from an audio file and queues it to start on
// the next multiple of quantumBeats. A non-positive quantum is treated as a
// whole beat. If the clock is already exactly on a grid line, the launch
// fires on the next tick rather than a full quantum later. Returns the
// sound's id, which is tracked in the playback table like any other sound.
func (s *Scheduler) PlayOnBeat(path string, quantumBeats float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return 0, ErrNotInitialized
	}
	if quantumBeats <= 0 {
		quantumBeats = 1
	}

	snd, err := s.backend.CreateFromFile(path)
	if err != nil {
		return 0, err
	}

	id := s.nextID.Add(1)
	s.sounds[id] = &trackedSound{sound: snd}

	target := quantizeTarget(s.clock.CurrentBeat(), quantumBeats)
	s.pending = append(s.pending, pendingLaunch{id: id, target: target})
	s.log.Debug("launch queued", "id", id, "path", path, "target", target)
	return id, nil
}

// quantizeTarget snaps a beat position to the next multiple of the quantum.
// A position already on a grid line maps to itself, so ties fire now rather
// than a full quantum later.
func quantizeTarget(beat, quantumBeats float64) float64 {
	return math.Ceil(beat/quantumBeats) * quantumBeats
}

// tickLaunchesLocked releases every queued launch whose target beat has
// arrived: the sound is rewound and started, and the entry leaves the
// queue. The sound stays tracked in the playback table.
func (s *Scheduler) tickLaunchesLocked(beat float64) {
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.target > beat+beatEpsilon {
			kept = append(kept, p)
			continue
		}
		if ts, ok := s.sounds[p.id]; ok {
			ts.sound.SeekToStart()
			ts.sound.Start()
			s.log.Debug("launch fired", "id", p.id, "target", p.target, "beat", beat)
		}
	}
	s.pending = kept
}

// dropPendingLocked removes any queued launch referencing the given id.
func (s *Scheduler) dropPendingLocked(id int64) {
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.id != id {
			kept = append(kept, p)
		}
	}
	s.pending = kept
}
