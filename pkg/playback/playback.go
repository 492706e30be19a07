// Package playback implements the playback primitive consumed by the
// scheduler: creation of one-shot sounds from audio files, transient
// instrument voices, gain and pitch control, and frame-accurate seeking.
// The production implementation is backed by Ebitengine/audio, which mixes
// all players sharing one audio context.
package playback

import "errors"

// Playback-related errors.
var (
	// ErrUnsupportedFormat is returned when an audio file extension is not
	// one of .wav, .ogg or .mp3.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrSoundFontInvalid is returned when a SoundFont file cannot be parsed.
	ErrSoundFontInvalid = errors.New("invalid SoundFont file")
)

// Sound is one playable engine resource: a fixed clip, a queued launch or a
// transient instrument voice. All methods are synchronous and cheap; none
// blocks on I/O or the audio thread.
type Sound interface {
	// Start begins or resumes playback.
	Start()

	// Stop halts playback without releasing the resource; Start resumes
	// from the current position.
	Stop()

	// Destroy releases the engine resource. The Sound must not be used
	// afterwards. Destroy is idempotent.
	Destroy()

	// SeekToStart rewinds the playback position to the beginning.
	SeekToStart()

	// SeekToFrame moves the playback position to the given PCM frame.
	SeekToFrame(n uint64)

	// PositionFrames returns the current playback position in PCM frames.
	PositionFrames() uint64

	// SetGain sets the playback volume; the value is clamped to [0, 1].
	SetGain(g float64)

	// SetPitchRatio sets the playback speed ratio (1.0 = original pitch).
	// Non-positive ratios are ignored.
	SetPitchRatio(r float64)

	// SetLoop makes the sound restart from the beginning when it reaches
	// the end of its data. Synthesized voices ignore it.
	SetLoop(loop bool)
}

// Instrument spawns transient voices for note events. A sample-backed
// instrument pitch-shifts one shared sample; a SoundFont-backed instrument
// synthesizes each note.
type Instrument interface {
	// NewVoice creates a voice for the given MIDI note, with velocity
	// applied as gain in [0, 1]. The voice is created stopped; the caller
	// starts it.
	NewVoice(note int, velocity float64) (Sound, error)

	// Close releases any resources shared by the instrument's voices.
	Close()
}

// Backend creates sounds and instruments. The scheduler depends only on
// this interface; tests substitute an in-memory fake.
type Backend interface {
	// CreateFromFile decodes an audio file into a stopped Sound.
	CreateFromFile(path string) (Sound, error)

	// CreateInstrument prepares the shared instrument for note events.
	// baseNote is the MIDI note at which the source plays unshifted;
	// it is ignored by backends that synthesize pitch directly.
	CreateInstrument(path string, baseNote int) (Instrument, error)
}
