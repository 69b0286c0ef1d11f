package domain

import "time"

// ─── Pitch Types ────────────────────────────────────────────────────────────

// NoteInfo identifies the musical note nearest to a frequency.
// Derived on demand, never persisted on its own.
type NoteInfo struct {
	Name      string  `json:"name"`   // One of the 12 pitch classes, or "-" for silence
	Octave    int     `json:"octave"`
	Frequency float64 `json:"frequency"`
}

// SilentNote is the sentinel returned for silence or invalid input.
var SilentNote = NoteInfo{Name: "-", Octave: 0, Frequency: 0}

// IsSilent reports whether n is the silence sentinel.
func (n NoteInfo) IsSilent() bool {
	return n.Name == SilentNote.Name
}

// PitchSample is one detected frame. Immutable once produced.
type PitchSample struct {
	Frequency  float64   `json:"frequency"` // 0 = silence/unvoiced
	Note       string    `json:"note"`
	Octave     int       `json:"octave"`
	Cents      float64   `json:"cents"` // Positive = sharp, negative = flat
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}
