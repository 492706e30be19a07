// Package scheduler implements the musical transport and beat-quantized
// event scheduler: a beat clock, an id-based playback table, a quantized
// launch queue and a bar-cyclic song sequencer, driven by a periodic Tick
// call from the host.
//
// The scheduler is a cooperative single-pass state machine. One mutex
// serializes control calls against the tick; no operation blocks while
// holding it. The id allocator is an atomic counter outside the mutex since
// uniqueness is its only contract.
package scheduler

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/zurustar/takt/pkg/logger"
	"github.com/zurustar/takt/pkg/playback"
	"github.com/zurustar/takt/pkg/transport"
)

// beatEpsilon absorbs floating point drift when comparing beat positions.
const beatEpsilon = 1e-6

// trackedSound is one entry in the playback table. pausedFrame remembers
// where Pause left the playback cursor so Resume can seek back to it.
type trackedSound struct {
	sound       playback.Sound
	pausedFrame uint64
	paused      bool
}

// Scheduler owns the transport clock, the playback table, the quantized
// launch queue and the loaded song. All public methods are safe for
// concurrent use.
type Scheduler struct {
	mu          sync.Mutex
	backend     playback.Backend
	clock       *transport.Clock
	log         *slog.Logger
	initialized bool

	sounds  map[int64]*trackedSound
	pending []pendingLaunch
	song    *song
	reclaim reclaimer

	nextID atomic.Int64
}

// New creates a scheduler over the given playback backend with the clock at
// the default tempo. Call Init before any other operation.
func New(backend playback.Backend) *Scheduler {
	return NewWithClock(backend, transport.NewClock(transport.DefaultTempo))
}

// NewWithClock creates a scheduler using the given clock. Tests inject a
// clock with a controlled time source.
func NewWithClock(backend playback.Backend, clock *transport.Clock) *Scheduler {
	return &Scheduler{
		backend: backend,
		clock:   clock,
		log:     logger.GetLogger(),
	}
}

// Init prepares the scheduler for use. Idempotent.
func (s *Scheduler) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.sounds = make(map[int64]*trackedSound)
	s.initialized = true
	s.log.Info("scheduler initialized")
	return nil
}

// Shutdown stops the clock and releases every tracked resource: playback
// table entries, queued launches, the loaded song and anything awaiting
// reclamation. Idempotent.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}

	s.clock.Stop()
	s.pending = nil

	if s.song != nil {
		s.releaseSongLocked(s.song)
		s.song = nil
	}

	// Queued launch sounds live in the playback table, so this covers them.
	for id, ts := range s.sounds {
		ts.sound.Stop()
		ts.sound.Destroy()
		delete(s.sounds, id)
	}
	s.sounds = nil

	s.reclaim.flush()
	s.initialized = false
	s.log.Info("scheduler shut down")
}

// Play creates a sound from an audio file, starts it immediately and tracks
// it in the playback table. Returns the new sound's id.
func (s *Scheduler) Play(path string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return 0, ErrNotInitialized
	}

	snd, err := s.backend.CreateFromFile(path)
	if err != nil {
		return 0, err
	}
	snd.Start()

	id := s.nextID.Add(1)
	s.sounds[id] = &trackedSound{sound: snd}
	s.log.Debug("sound started", "id", id, "path", path)
	return id, nil
}

// Stop halts a tracked sound and removes it from the playback table. The
// resource is released at the end of the next tick.
func (s *Scheduler) Stop(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	delete(s.sounds, id)
	s.dropPendingLocked(id)
	ts.sound.Stop()
	s.reclaim.scheduleDelete(ts.sound)
	return nil
}

// Pause halts a tracked sound, remembering its playback position.
func (s *Scheduler) Pause(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	if ts.paused {
		return nil
	}
	ts.pausedFrame = ts.sound.PositionFrames()
	ts.paused = true
	ts.sound.Stop()
	return nil
}

// Resume restarts a paused sound from where Pause left it.
func (s *Scheduler) Resume(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	if !ts.paused {
		return nil
	}
	ts.sound.SeekToFrame(ts.pausedFrame)
	ts.paused = false
	ts.sound.Start()
	return nil
}

// SetVolume sets a tracked sound's gain, clamped to [0, 1].
func (s *Scheduler) SetVolume(id int64, gain float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	ts.sound.SetGain(gain)
	return nil
}

// SetLoop toggles looping on a tracked sound.
func (s *Scheduler) SetLoop(id int64, loop bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	ts.sound.SetLoop(loop)
	return nil
}

// TransportPlay starts the beat clock. Idempotent; resuming preserves the
// beat phase.
func (s *Scheduler) TransportPlay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.clock.Play()
	return nil
}

// TransportPause freezes the beat clock at its current position.
func (s *Scheduler) TransportPause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.clock.Pause()
	return nil
}

// TransportStop stops the clock and resets it to beat zero, drops every
// queued launch, stops and reclaims every active voice and pending stop,
// and rearms a loaded song to its origin so a later transport start resumes
// the pattern from the beginning.
//
// Dropped launch sounds stay in the playback table under their ids; the
// caller remains responsible for them there.
func (s *Scheduler) TransportStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	s.clock.Stop()
	s.pending = nil

	if s.song != nil {
		s.song.stopVoicesLocked(&s.reclaim)
		s.song.rearm(0)
	}
	return nil
}

// SetTempo changes the clock tempo, preserving the beat phase. Fails for
// non-positive values.
func (s *Scheduler) SetTempo(bpm float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	return s.clock.SetTempo(bpm)
}

// BeatPosition returns the clock's current beat.
func (s *Scheduler) BeatPosition() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return 0, ErrNotInitialized
	}
	return s.clock.CurrentBeat(), nil
}

// Tick advances the scheduler by one host frame: it releases due quantized
// launches, resolves due note stops, fires due song events (catching up on
// every firing missed during a long frame) and finally reclaims sounds
// scheduled for deletion. The host must call it periodically; without it
// the clock keeps advancing but nothing fires.
//
// Nothing fires while the transport is stopped or paused: a song rearmed
// to its origin by TransportStop stays armed, untouched, until the
// transport starts again.
func (s *Scheduler) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	if s.clock.Playing() {
		beat := s.clock.CurrentBeat()
		s.tickLaunchesLocked(beat)
		if s.song != nil {
			s.song.tick(s, beat)
		}
	}
	s.reclaim.flush()
	return nil
}

// lookupLocked resolves an id in the playback table.
func (s *Scheduler) lookupLocked(id int64) (*trackedSound, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	ts, ok := s.sounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ts, nil
}
