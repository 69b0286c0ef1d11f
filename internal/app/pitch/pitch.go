// Package pitch converts between frequencies, note names and cents.
// All functions are pure; invalid input yields sentinel or zero values.
package pitch

import (
	"math"
	"strings"
	"time"

	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// A4 is the reference pitch in Hz.
const A4 = 440.0

// a4Index is A's position among the 12 pitch classes starting at C.
const a4Index = 9

// a4Octave anchors note indices to scientific pitch notation.
const a4Octave = 4

// NoteNames lists the 12 pitch classes, C first.
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// FrequencyToNote returns the note nearest to hz. Non-positive input yields
// domain.SilentNote.
func FrequencyToNote(hz float64) domain.NoteInfo {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return domain.SilentNote
	}

	semitones := int(math.Round(12 * math.Log2(hz/A4)))
	noteIndex := semitones + a4Index

	return domain.NoteInfo{
		Name:      NoteNames[mod12(noteIndex)],
		Octave:    a4Octave + floorDiv12(noteIndex),
		Frequency: hz,
	}
}

// NoteToFrequency returns the equal-tempered frequency of name in octave.
// Names are case-insensitive with '#' marking a sharp. Unknown names yield 0.
func NoteToFrequency(name string, octave int) float64 {
	idx := NoteIndex(name)
	if idx < 0 {
		return 0
	}
	semitones := (octave-a4Octave)*12 + (idx - a4Index)
	return A4 * math.Pow(2, float64(semitones)/12)
}

// NoteIndex returns the pitch-class index of name (0 = C), or -1.
func NoteIndex(name string) int {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, candidate := range NoteNames {
		if candidate == n {
			return i
		}
	}
	return -1
}

// CentsDeviation returns how far hz is from target in cents.
// Positive is sharp, negative is flat; 0 if either input is non-positive.
func CentsDeviation(hz, target float64) float64 {
	if hz <= 0 || target <= 0 {
		return 0
	}
	return 1200 * math.Log2(hz/target)
}

// QuantizedFrequency snaps hz to the nearest equal-tempered semitone.
func QuantizedFrequency(hz float64) float64 {
	n := FrequencyToNote(hz)
	return NoteToFrequency(n.Name, n.Octave)
}

// BuildPitchSample derives note and cents for one detected frame.
func BuildPitchSample(hz, confidence float64) domain.PitchSample {
	return BuildPitchSampleAt(hz, confidence, time.Now())
}

// BuildPitchSampleAt is BuildPitchSample with an explicit timestamp.
func BuildPitchSampleAt(hz, confidence float64, at time.Time) domain.PitchSample {
	note := FrequencyToNote(hz)
	target := NoteToFrequency(note.Name, note.Octave)

	freq := hz
	if note.IsSilent() {
		freq = 0
	}

	return domain.PitchSample{
		Frequency:  freq,
		Note:       note.Name,
		Octave:     note.Octave,
		Cents:      CentsDeviation(hz, target),
		Confidence: clamp01(confidence),
		Timestamp:  at,
	}
}

// mod12 is a modulo that stays non-negative for negative n.
func mod12(n int) int {
	return ((n % 12) + 12) % 12
}

// floorDiv12 rounds toward negative infinity.
func floorDiv12(n int) int {
	q := n / 12
	if n%12 != 0 && n < 0 {
		q--
	}
	return q
}

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
