package playback

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/takt/pkg/fileutil"
)

// SoundFontInstrument synthesizes note voices from a SoundFont (.sf2) file.
// One synthesizer renders all voices into a single continuously running
// player stream; each voice maps to a NoteOn/NoteOff pair on channel 0.
type SoundFontInstrument struct {
	stream *synthStream
	player *audio.Player
	closed bool
}

func newSoundFontInstrument(system *System, path string) (*SoundFontInstrument, error) {
	data, err := fileutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSoundFontInvalid, path, err)
	}

	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer for %s: %w", path, err)
	}

	stream := &synthStream{synth: synth}
	player, err := system.audioCtx.NewPlayer(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player for %s: %w", path, err)
	}
	if system.IsMuted() {
		player.SetVolume(0)
	}

	// The synthesizer stream runs for the instrument's whole lifetime;
	// it renders silence while no notes are held.
	player.Play()

	return &SoundFontInstrument{
		stream: stream,
		player: player,
	}, nil
}

// NewVoice returns a voice that triggers the given MIDI note on Start and
// releases it on Stop or Destroy.
func (sf *SoundFontInstrument) NewVoice(note int, velocity float64) (Sound, error) {
	if sf.closed {
		return nil, fmt.Errorf("soundfont instrument is closed")
	}
	return &soundFontVoice{
		stream:   sf.stream,
		note:     int32(note),
		velocity: velocity,
	}, nil
}

// Close silences and releases the synthesizer stream.
func (sf *SoundFontInstrument) Close() {
	if sf.closed {
		return
	}
	sf.closed = true
	sf.stream.allNotesOff()
	sf.player.Close()
}

// soundFontVoice is one sounding note on the shared synthesizer.
type soundFontVoice struct {
	stream     *synthStream
	note       int32
	velocity   float64
	startFrame uint64
	started    bool
}

func (v *soundFontVoice) Start() {
	v.startFrame = v.stream.framesRendered()
	v.stream.noteOn(v.note, midiVelocity(v.velocity))
	v.started = true
}

func (v *soundFontVoice) Stop() {
	if !v.started {
		return
	}
	v.stream.noteOff(v.note)
}

func (v *soundFontVoice) Destroy() {
	v.Stop()
	v.started = false
}

func (v *soundFontVoice) SeekToStart() {
	// Retrigger the note from its attack.
	if v.started {
		v.stream.noteOff(v.note)
		v.stream.noteOn(v.note, midiVelocity(v.velocity))
	}
}

func (v *soundFontVoice) SeekToFrame(n uint64) {
	// Synthesized voices have no seekable timeline.
}

func (v *soundFontVoice) PositionFrames() uint64 {
	if !v.started {
		return 0
	}
	return v.stream.framesRendered() - v.startFrame
}

func (v *soundFontVoice) SetGain(g float64) {
	// Gain maps to MIDI velocity, which only matters at note-on time.
	v.velocity = g
}

func (v *soundFontVoice) SetPitchRatio(r float64) {
	// Pitch is determined by the MIDI note.
}

func (v *soundFontVoice) SetLoop(loop bool) {
	// A synthesized note sounds until released; looping does not apply.
}

// midiVelocity converts a gain in [0, 1] to a MIDI velocity in [1, 127].
func midiVelocity(g float64) int32 {
	v := int32(g * 127)
	if v < 1 {
		v = 1
	}
	if v > 127 {
		v = 127
	}
	return v
}

// synthStream renders the shared synthesizer into 16-bit stereo PCM.
// The audio thread calls Read while the control thread triggers notes, so
// every synthesizer call is serialized by the mutex.
type synthStream struct {
	mu     sync.Mutex
	synth  *meltysynth.Synthesizer
	frames uint64
}

func (ss *synthStream) Read(p []byte) (int, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	sampleCount := len(p) / bytesPerFrame
	left := make([]float32, sampleCount)
	right := make([]float32, sampleCount)
	ss.synth.Render(left, right)

	for i := 0; i < sampleCount; i++ {
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame:], uint16(sampleToInt16(left[i])))
		binary.LittleEndian.PutUint16(p[i*bytesPerFrame+2:], uint16(sampleToInt16(right[i])))
	}

	ss.frames += uint64(sampleCount)
	return sampleCount * bytesPerFrame, nil
}

// sampleToInt16 converts a float sample to 16-bit PCM. The synthesizer can
// render peaks beyond [-1, 1], so the value is clamped before conversion.
func sampleToInt16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}

func (ss *synthStream) noteOn(note, velocity int32) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.synth.NoteOn(0, note, velocity)
}

func (ss *synthStream) noteOff(note int32) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.synth.NoteOff(0, note)
}

func (ss *synthStream) allNotesOff() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.synth.NoteOffAll(false)
}

func (ss *synthStream) framesRendered() uint64 {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.frames
}
