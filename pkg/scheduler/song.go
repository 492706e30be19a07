package scheduler

import (
	"math"

	"github.com/zurustar/takt/pkg/playback"
	"github.com/zurustar/takt/pkg/songfile"
)

// songEvent is one armed track row. Fixed clips hold their pre-created
// resource for the song's lifetime; note events spawn a fresh voice on
// every firing.
type songEvent struct {
	offsetBeat    float64
	durationBeats float64
	gain          float64
	isNote        bool
	noteMIDI      int
	clip          playback.Sound

	nextBeat float64
	active   bool
}

// activeVoice is a transient sounding note, tracked so it can be
// force-stopped on song or transport stop.
type activeVoice struct {
	id    int64
	sound playback.Sound
}

// pendingStop schedules the eventual stop of a voice whose event specified
// a duration.
type pendingStop struct {
	sound   playback.Sound
	endBeat float64
}

// song is the loaded sequencer state: bar geometry, the shared instrument,
// the armed events and the transient voice bookkeeping.
type song struct {
	loop        bool
	beatsPerBar int
	lengthBeats float64
	startBeat   float64
	instrument  playback.Instrument
	events      []*songEvent
	voices      []*activeVoice
	stops       []*pendingStop
}

// SongLoad parses a song definition file and prepares it for playback:
// the shared instrument and every fixed clip are created up front. Any
// previously loaded song is released first; if the new one fails midway,
// everything created so far is reclaimed and no song remains loaded.
func (s *Scheduler) SongLoad(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	if s.song != nil {
		s.releaseSongLocked(s.song)
		s.song = nil
	}

	def, err := songfile.Load(path)
	if err != nil {
		return err
	}

	sg := &song{
		loop:        def.Loop,
		beatsPerBar: def.BeatsPerBar,
		lengthBeats: def.SongLengthBeats(),
	}

	if def.Instrument != nil {
		inst, err := s.backend.CreateInstrument(def.Instrument.File, def.Instrument.BaseNoteMIDI)
		if err != nil {
			return err
		}
		sg.instrument = inst
	}

	for i := range def.Events {
		ev := &def.Events[i]
		se := &songEvent{
			offsetBeat:    ev.Beat,
			durationBeats: ev.Duration,
			gain:          ev.Gain(),
			isNote:        ev.IsNote(),
			noteMIDI:      ev.NoteMIDI,
		}
		if !se.isNote {
			clip, err := s.backend.CreateFromFile(ev.File)
			if err != nil {
				s.releaseSongLocked(sg)
				return err
			}
			clip.SetGain(se.gain)
			se.clip = clip
		}
		sg.events = append(sg.events, se)
	}

	if err := s.clock.SetTempo(def.Tempo); err != nil {
		s.releaseSongLocked(sg)
		return err
	}

	s.song = sg
	s.log.Info("song loaded", "path", path,
		"events", len(sg.events), "lengthBeats", sg.lengthBeats, "loop", sg.loop)
	return nil
}

// SongPlay starts the loaded song on the next whole beat. The clock is
// started if necessary without disturbing its phase.
func (s *Scheduler) SongPlay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if s.song == nil {
		return ErrNoSongLoaded
	}

	s.clock.Play()
	s.song.rearm(math.Ceil(s.clock.CurrentBeat()))
	for _, ev := range s.song.events {
		ev.active = true
	}
	s.log.Info("song playing", "startBeat", s.song.startBeat)
	return nil
}

// SongStop deactivates every event and silences the song: transient voices
// are stopped and reclaimed, fixed clips are stopped in place but kept for
// the song's lifetime.
func (s *Scheduler) SongStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if s.song == nil {
		return ErrNoSongLoaded
	}

	for _, ev := range s.song.events {
		ev.active = false
		if ev.clip != nil {
			ev.clip.Stop()
		}
	}
	s.song.stopVoicesLocked(&s.reclaim)
	return nil
}

// SongSetLoop toggles looping on the loaded song.
func (s *Scheduler) SongSetLoop(loop bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if s.song == nil {
		return ErrNoSongLoaded
	}
	s.song.loop = loop
	return nil
}

// releaseSongLocked stops and reclaims everything a song owns: transient
// voices, fixed clips and the shared instrument.
func (s *Scheduler) releaseSongLocked(sg *song) {
	sg.stopVoicesLocked(&s.reclaim)
	for _, ev := range sg.events {
		if ev.clip != nil {
			ev.clip.Stop()
			s.reclaim.scheduleDelete(ev.clip)
		}
	}
	if sg.instrument != nil {
		sg.instrument.Close()
		sg.instrument = nil
	}
}

// rearm resets the song's firing schedule to start at the given beat
// without touching event activation.
func (sg *song) rearm(startBeat float64) {
	sg.startBeat = startBeat
	for _, ev := range sg.events {
		ev.nextBeat = startBeat + ev.offsetBeat
	}
}

// stopVoicesLocked stops and schedules deletion of every transient voice
// and pending stop, then clears both lists.
func (sg *song) stopVoicesLocked(r *reclaimer) {
	for _, v := range sg.voices {
		v.sound.Stop()
		r.scheduleDelete(v.sound)
	}
	sg.voices = nil
	for _, ps := range sg.stops {
		ps.sound.Stop()
		r.scheduleDelete(ps.sound)
	}
	sg.stops = nil
}

// tick resolves due note stops, then fires every due event. The firing scan
// is a while loop per event: a long host frame that jumps the clock past
// several grid points still fires every missed occurrence in order.
func (sg *song) tick(s *Scheduler, beat float64) {
	kept := sg.stops[:0]
	for _, ps := range sg.stops {
		if beat+beatEpsilon < ps.endBeat {
			kept = append(kept, ps)
			continue
		}
		ps.sound.Stop()
		s.reclaim.scheduleDelete(ps.sound)
		sg.removeVoice(ps.sound)
	}
	sg.stops = kept

	for _, ev := range sg.events {
		if !ev.active {
			continue
		}
		for beat+beatEpsilon >= ev.nextBeat {
			sg.fire(s, ev, beat)
			ev.nextBeat += float64(sg.beatsPerBar)
			if !sg.loop && ev.nextBeat-sg.startBeat >= sg.lengthBeats+beatEpsilon {
				ev.active = false
				break
			}
		}
	}
}

// fire plays one event occurrence: fixed clips restart their pre-created
// resource, note events spawn a fresh voice. A voice creation failure is
// dropped silently; the event still advances.
func (sg *song) fire(s *Scheduler, ev *songEvent, beat float64) {
	if !ev.isNote {
		ev.clip.SeekToStart()
		ev.clip.Start()
		return
	}

	if sg.instrument == nil {
		return
	}
	voice, err := sg.instrument.NewVoice(ev.noteMIDI, ev.gain)
	if err != nil {
		s.log.Warn("voice creation failed", "note", ev.noteMIDI, "error", err)
		return
	}
	voice.Start()
	sg.voices = append(sg.voices, &activeVoice{id: s.nextID.Add(1), sound: voice})
	if ev.durationBeats > 0 {
		sg.stops = append(sg.stops, &pendingStop{sound: voice, endBeat: beat + ev.durationBeats})
	}
}

// removeVoice drops every active-voice entry referencing the same sound.
func (sg *song) removeVoice(snd playback.Sound) {
	kept := sg.voices[:0]
	for _, v := range sg.voices {
		if v.sound != snd {
			kept = append(kept, v)
		}
	}
	sg.voices = kept
}
