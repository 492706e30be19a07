package songfile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// letterSemitones maps note letters to semitone offsets within an octave.
var letterSemitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// ParseNote converts a note name like "C4", "C#3", "Db3" or "A-1" to its
// MIDI note number (C4 = 60). Enharmonic spellings map to the same number.
func ParseNote(name string) (int, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return 0, fmt.Errorf("empty note name")
	}

	letter := s[0]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	semitone, ok := letterSemitones[letter]
	if !ok {
		return 0, fmt.Errorf("invalid note letter %q in %q", s[0], name)
	}

	i := 1
	for ; i < len(s); i++ {
		if s[i] == '#' {
			semitone++
		} else if s[i] == 'b' {
			semitone--
		} else {
			break
		}
	}

	rest := s[i:]
	if rest == "" {
		return 0, fmt.Errorf("note %q is missing an octave", name)
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in note %q", name)
	}

	midi := (octave+1)*12 + semitone
	if midi < 0 || midi > 127 {
		return 0, fmt.Errorf("note %q is outside the MIDI range", name)
	}
	return midi, nil
}

// PitchRatio returns the equal-tempered playback speed ratio for playing
// midi on a sample recorded at baseNote.
func PitchRatio(midi, baseNote int) float64 {
	return math.Pow(2, float64(midi-baseNote)/12)
}
