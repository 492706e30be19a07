package playback

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"github.com/zurustar/takt/pkg/fileutil"
	"github.com/zurustar/takt/pkg/songfile"
)

// SampleRate is the audio output sample rate shared by every player.
const SampleRate = 44100

// System is the Ebitengine-backed playback backend. All sounds share one
// audio context, which mixes them automatically. Decoded PCM is cached by
// path so that repeated note firings from the same sample do not re-decode
// the file.
type System struct {
	audioCtx *audio.Context
	muted    bool
	pcmCache map[string][]byte
	mu       sync.Mutex
}

// NewSystem creates a playback system using the given audio context.
// Passing nil creates a new context at SampleRate. Ebitengine allows only
// one context per process, so a host that already owns one must pass it in.
func NewSystem(audioCtx *audio.Context) *System {
	if audioCtx == nil {
		audioCtx = audio.NewContext(SampleRate)
	}
	return &System{
		audioCtx: audioCtx,
		pcmCache: make(map[string][]byte),
	}
}

// SetMuted mutes or unmutes all sounds created afterwards. Headless hosts
// mute output while keeping the scheduling behavior identical.
func (s *System) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
}

// IsMuted returns whether the system is muted.
func (s *System) IsMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// CreateFromFile decodes an audio file into a stopped Sound.
// The format is chosen by extension: .wav, .ogg or .mp3.
func (s *System) CreateFromFile(path string) (Sound, error) {
	data, err := s.loadPCM(path)
	if err != nil {
		return nil, err
	}
	return s.newSound(data)
}

// CreateInstrument prepares the shared instrument for note events.
// A .sf2 path yields a SoundFont instrument synthesizing each note; any
// other supported extension yields a sample instrument whose voices play
// the decoded sample pitch-shifted relative to baseNote.
func (s *System) CreateInstrument(path string, baseNote int) (Instrument, error) {
	if strings.EqualFold(filepath.Ext(path), ".sf2") {
		return newSoundFontInstrument(s, path)
	}

	data, err := s.loadPCM(path)
	if err != nil {
		return nil, err
	}
	return &sampleInstrument{
		system:   s,
		data:     data,
		baseNote: baseNote,
	}, nil
}

// newSound wraps decoded PCM into a player-backed Sound.
func (s *System) newSound(data []byte) (Sound, error) {
	stream := newPCMStream(data)
	player, err := s.audioCtx.NewPlayer(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player: %w", err)
	}

	snd := &ebitenSound{
		system: s,
		player: player,
		stream: stream,
		gain:   1.0,
	}
	snd.applyGain()
	return snd, nil
}

// loadPCM reads and decodes an audio file, caching the result by its
// resolved path.
func (s *System) loadPCM(path string) ([]byte, error) {
	actual, err := fileutil.Resolve(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if data, ok := s.pcmCache[actual]; ok {
		s.mu.Unlock()
		return data, nil
	}
	s.mu.Unlock()

	raw, err := fileutil.ReadFile(actual)
	if err != nil {
		return nil, err
	}

	var stream io.Reader
	switch strings.ToLower(filepath.Ext(actual)) {
	case ".wav":
		stream, err = wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(raw))
	case ".ogg":
		stream, err = vorbis.DecodeWithSampleRate(SampleRate, bytes.NewReader(raw))
	case ".mp3":
		stream, err = mp3.DecodeWithSampleRate(SampleRate, bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, actual)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", actual, err)
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM from %s: %w", actual, err)
	}

	s.mu.Lock()
	s.pcmCache[actual] = data
	s.mu.Unlock()

	return data, nil
}

// ebitenSound is a Sound backed by one Ebitengine audio player over a
// pcmStream.
type ebitenSound struct {
	system *System
	player *audio.Player
	stream *pcmStream
	gain   float64
	closed bool
}

func (e *ebitenSound) Start() {
	if e.closed {
		return
	}
	e.player.Play()
}

func (e *ebitenSound) Stop() {
	if e.closed {
		return
	}
	e.player.Pause()
}

func (e *ebitenSound) Destroy() {
	if e.closed {
		return
	}
	e.closed = true
	e.player.Close()
}

func (e *ebitenSound) SeekToStart() {
	e.stream.seekFrames(0)
}

func (e *ebitenSound) SeekToFrame(n uint64) {
	e.stream.seekFrames(n)
}

func (e *ebitenSound) PositionFrames() uint64 {
	return e.stream.positionFrames()
}

func (e *ebitenSound) SetGain(g float64) {
	e.gain = math.Min(math.Max(g, 0), 1)
	e.applyGain()
}

func (e *ebitenSound) applyGain() {
	if e.closed {
		return
	}
	if e.system.IsMuted() {
		e.player.SetVolume(0)
		return
	}
	e.player.SetVolume(e.gain)
}

func (e *ebitenSound) SetPitchRatio(r float64) {
	e.stream.setRatio(r)
}

func (e *ebitenSound) SetLoop(loop bool) {
	e.stream.setLoop(loop)
}

// sampleInstrument spawns voices that replay one decoded sample,
// pitch-shifted by resampling. Voices share the PCM data but own their
// playback position.
type sampleInstrument struct {
	system   *System
	data     []byte
	baseNote int
}

func (si *sampleInstrument) NewVoice(note int, velocity float64) (Sound, error) {
	snd, err := si.system.newSound(si.data)
	if err != nil {
		return nil, err
	}
	snd.SetGain(velocity)
	snd.SetPitchRatio(songfile.PitchRatio(note, si.baseNote))
	return snd, nil
}

func (si *sampleInstrument) Close() {
	// Voices own their players; the shared PCM is reclaimed by the GC.
}
