package songfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSong(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.yaml")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write song file: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeSong(t, []byte(`
tempo: 100
events:
  - file: kick.wav
    beat: 0
`))

	def, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if def.Tempo != 100 {
		t.Errorf("Tempo = %g, want 100", def.Tempo)
	}
	if def.BeatsPerBar != DefaultBeatsPerBar {
		t.Errorf("BeatsPerBar = %d, want %d", def.BeatsPerBar, DefaultBeatsPerBar)
	}
	if def.Bars != DefaultBars {
		t.Errorf("Bars = %d, want %d", def.Bars, DefaultBars)
	}
	if def.Loop {
		t.Error("Loop = true, want false by default")
	}
	if got := def.Events[0].Gain(); got != 1 {
		t.Errorf("default Gain = %g, want 1", got)
	}
	if got := def.SongLengthBeats(); got != 4 {
		t.Errorf("SongLengthBeats = %g, want 4", got)
	}
}

func TestLoadFullSong(t *testing.T) {
	path := writeSong(t, []byte(`
tempo: 120
beatsperbar: 4
bars: 2
loop: true
instrument:
  file: piano.wav
  basenote: C3
events:
  - file: kick.wav
    beat: 0
    velocity: 0.5
  - note: C#3
    beat: 0.5
    duration: 1
    velocity: 0.8
`))

	def, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !def.Loop {
		t.Error("Loop = false, want true")
	}
	if got := def.SongLengthBeats(); got != 8 {
		t.Errorf("SongLengthBeats = %g, want 8", got)
	}
	if def.Instrument.BaseNoteMIDI != 48 {
		t.Errorf("BaseNoteMIDI = %d, want 48", def.Instrument.BaseNoteMIDI)
	}
	if def.Instrument.Tuning != DefaultTuning {
		t.Errorf("Tuning = %g, want %g", def.Instrument.Tuning, DefaultTuning)
	}

	clip := def.Events[0]
	if clip.IsNote() {
		t.Error("event 0 reported as note")
	}
	if got := clip.Gain(); got != 0.5 {
		t.Errorf("event 0 Gain = %g, want 0.5", got)
	}

	note := def.Events[1]
	if !note.IsNote() {
		t.Error("event 1 not reported as note")
	}
	if note.NoteMIDI != 49 {
		t.Errorf("event 1 NoteMIDI = %d, want 49", note.NoteMIDI)
	}
	if note.Duration != 1 {
		t.Errorf("event 1 Duration = %g, want 1", note.Duration)
	}
}

func TestLoadShiftJISFallback(t *testing.T) {
	// "日本語" encoded as Shift-JIS in a comment makes the file invalid UTF-8.
	content := append([]byte("# "), 0x93, 0xfa, 0x96, 0x7b, 0x8c, 0xea)
	content = append(content, []byte(`
tempo: 90
events:
  - file: snare.wav
    beat: 1
`)...)
	path := writeSong(t, content)

	def, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed on Shift-JIS file: %v", err)
	}
	if def.Tempo != 90 {
		t.Errorf("Tempo = %g, want 90", def.Tempo)
	}
}

func TestLoadRejectsInvalidDefinitions(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing tempo",
			content: "events:\n  - file: kick.wav\n    beat: 0\n",
			wantErr: ErrInvalidTempo,
		},
		{
			name:    "no events",
			content: "tempo: 120\n",
			wantErr: ErrNoEvents,
		},
		{
			name:    "note without instrument",
			content: "tempo: 120\nevents:\n  - note: C4\n    beat: 0\n",
			wantErr: ErrNoInstrument,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeSong(t, []byte(tc.content))
			_, err := Load(path)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Load error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoadRejectsMalformedEvents(t *testing.T) {
	cases := []string{
		"tempo: 120\nevents:\n  - beat: 0\n",                             // neither file nor note
		"tempo: 120\nevents:\n  - file: a.wav\n    note: C4\n    beat: 0\n", // both
		"tempo: 120\nevents:\n  - file: a.wav\n    beat: -1\n",           // negative beat
		"tempo: 120\nevents:\n  - file: a.wav\n    beat: 0\n    duration: -2\n",
	}
	for _, content := range cases {
		path := writeSong(t, []byte(content))
		if _, err := Load(path); err == nil {
			t.Errorf("Load succeeded for malformed content:\n%s", content)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load succeeded for a missing file")
	}
}
