// Package songfile decodes YAML song definitions into the plain data model
// consumed by the scheduler: tempo, bar geometry, an optional shared
// instrument and an ordered list of beat-positioned events.
package songfile

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/zurustar/takt/pkg/fileutil"
)

// Defaults applied when the definition omits the corresponding field.
const (
	DefaultBeatsPerBar = 4
	DefaultBars        = 1
	DefaultBaseNote    = "C4"
	DefaultTuning      = 440.0
)

// Song definition errors.
var (
	// ErrNoEvents is returned when the definition declares no events.
	ErrNoEvents = errors.New("song defines no events")

	// ErrInvalidTempo is returned when tempo is missing or non-positive.
	ErrInvalidTempo = errors.New("song tempo must be positive")

	// ErrNoInstrument is returned when a note event is present but no
	// shared instrument is declared.
	ErrNoInstrument = errors.New("note event requires an instrument")
)

// Definition is a parsed song: bar geometry, loop flag, optional shared
// instrument and the event list.
type Definition struct {
	Tempo       float64     `yaml:"tempo"`
	BeatsPerBar int         `yaml:"beatsperbar"`
	Bars        int         `yaml:"bars"`
	Loop        bool        `yaml:"loop"`
	Instrument  *Instrument `yaml:"instrument"`
	Events      []Event     `yaml:"events"`
}

// Instrument is the shared source for note events: an audio sample played
// pitch-shifted, or a SoundFont synthesizing each note.
type Instrument struct {
	File     string  `yaml:"file"`
	BaseNote string  `yaml:"basenote"` // note at which the sample plays unshifted
	Tuning   float64 `yaml:"tuning"`   // reference Hz for A4, documented metadata

	// BaseNoteMIDI is the parsed BaseNote, filled in by Load.
	BaseNoteMIDI int `yaml:"-"`
}

// Event is one track row: either a fixed clip (File) or a note against the
// shared instrument (Note), positioned at a beat offset within the bar
// cycle.
type Event struct {
	File     string   `yaml:"file"`
	Note     string   `yaml:"note"`
	Beat     float64  `yaml:"beat"`
	Duration float64  `yaml:"duration"`
	Velocity *float64 `yaml:"velocity"`

	// NoteMIDI is the parsed Note, filled in by Load for note events.
	NoteMIDI int `yaml:"-"`
}

// IsNote reports whether the event plays the shared instrument.
func (e *Event) IsNote() bool {
	return e.Note != ""
}

// Gain returns the event velocity clamped to [0, 1], defaulting to 1.
func (e *Event) Gain() float64 {
	if e.Velocity == nil {
		return 1
	}
	g := *e.Velocity
	if g < 0 {
		return 0
	}
	if g > 1 {
		return 1
	}
	return g
}

// Load reads, decodes and validates a song definition file.
// Files that are not valid UTF-8 are re-decoded from Shift-JIS before
// parsing, for definitions written on legacy Windows hosts.
func Load(path string) (*Definition, error) {
	data, err := fileutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(data) {
		decoder := japanese.ShiftJIS.NewDecoder()
		decoded, _, decErr := transform.Bytes(decoder, data)
		if decErr != nil {
			return nil, fmt.Errorf("failed to decode %s as Shift-JIS: %w", path, decErr)
		}
		data = decoded
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse song definition %s: %w", path, err)
	}

	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("invalid song definition %s: %w", path, err)
	}
	return &def, nil
}

// validate checks the definition and fills in defaults and parsed notes.
func (d *Definition) validate() error {
	if d.Tempo <= 0 {
		return ErrInvalidTempo
	}
	if d.BeatsPerBar <= 0 {
		d.BeatsPerBar = DefaultBeatsPerBar
	}
	if d.Bars <= 0 {
		d.Bars = DefaultBars
	}
	if len(d.Events) == 0 {
		return ErrNoEvents
	}

	if d.Instrument != nil {
		if d.Instrument.File == "" {
			return fmt.Errorf("instrument declares no file")
		}
		if d.Instrument.BaseNote == "" {
			d.Instrument.BaseNote = DefaultBaseNote
		}
		if d.Instrument.Tuning <= 0 {
			d.Instrument.Tuning = DefaultTuning
		}
		midi, err := ParseNote(d.Instrument.BaseNote)
		if err != nil {
			return fmt.Errorf("instrument base note: %w", err)
		}
		d.Instrument.BaseNoteMIDI = midi
	}

	for i := range d.Events {
		ev := &d.Events[i]
		if ev.File == "" && ev.Note == "" {
			return fmt.Errorf("event %d declares neither file nor note", i)
		}
		if ev.File != "" && ev.Note != "" {
			return fmt.Errorf("event %d declares both file and note", i)
		}
		if ev.Beat < 0 {
			return fmt.Errorf("event %d has negative beat %g", i, ev.Beat)
		}
		if ev.Duration < 0 {
			return fmt.Errorf("event %d has negative duration %g", i, ev.Duration)
		}
		if ev.IsNote() {
			if d.Instrument == nil {
				return ErrNoInstrument
			}
			midi, err := ParseNote(ev.Note)
			if err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
			ev.NoteMIDI = midi
		}
	}
	return nil
}

// SongLengthBeats returns the total length of the song in beats.
func (d *Definition) SongLengthBeats() float64 {
	return float64(d.BeatsPerBar * d.Bars)
}
