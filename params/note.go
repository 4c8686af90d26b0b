package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-approx"
)

// ErrInvalidNote is returned for note names that cannot be parsed.
var ErrInvalidNote = errors.New("invalid note name")

var noteOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// ParseNote converts scientific pitch notation ("C4", "F#3", "Bb-1") to a
// MIDI note number.
func ParseNote(name string) (int, error) {
	s := strings.TrimSpace(name)
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	base, ok := noteOffsets[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	rest := s[1:]
	for len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			base++
		} else {
			base--
		}
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	return (octave+1)*12 + base, nil
}

// NoteToFrequency converts a note name to Hz using A4 = 440 Hz.
func NoteToFrequency(name string) (float64, error) {
	note, err := ParseNote(name)
	if err != nil {
		return 0, err
	}
	return MIDIToFrequency(note), nil
}

// MIDIToFrequency converts a MIDI note number to Hz.
func MIDIToFrequency(note int) float64 {
	const a4Freq = 440.0
	const a4Note = 69
	return a4Freq * pow2(float32(note-a4Note)/12.0)
}

// Transpose shifts freq by semitones.
func Transpose(freq float64, semitones float64) float64 {
	if semitones == 0 {
		return freq
	}
	return freq * pow2(float32(semitones/12.0))
}

// CentsToRatio converts a detune in cents to a frequency ratio.
func CentsToRatio(cents float64) float64 {
	if cents == 0 {
		return 1
	}
	return pow2(float32(cents / 1200.0))
}

func pow2(x float32) float64 {
	const ln2 = 0.69314718055994530942
	return float64(approx.FastExp(x * ln2))
}
