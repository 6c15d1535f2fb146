// Package songs provides built-in melodies and test tones for checking a
// playback setup without any input file.
package songs

import "slices"

// Note frequencies (Hz).
const (
	C3 = 131.0
	D3 = 147.0
	E3 = 165.0
	F3 = 175.0
	G3 = 196.0
	A3 = 220.0
	B3 = 247.0

	C4 = 262.0
	D4 = 294.0
	E4 = 330.0
	F4 = 349.0
	G4 = 392.0
	A4 = 440.0
	B4 = 494.0

	C5 = 523.0

	Rest = 0.0
)

// Note values in beats, quarter note = 1.
const (
	Whole   = 4.0
	Half    = 2.0
	DotHalf = 3.0
	Quarter = 1.0
	Eighth  = 0.5
)

// Note is a pitch held for a number of beats.
type Note struct {
	Freq  float64 // Hz, Rest for silence
	Beats float64
}

// N is a shorthand constructor for Note.
func N(freq, beats float64) Note {
	return Note{Freq: freq, Beats: beats}
}

// Song is a melody with an optional bass line, both played at BPM.
type Song struct {
	ID     string
	Name   string
	BPM    int
	Melody []Note
	Bass   []Note
}

// Beats returns the length of the longer voice in beats.
func (s Song) Beats() float64 {
	return max(totalBeats(s.Melody), totalBeats(s.Bass))
}

func totalBeats(notes []Note) float64 {
	var total float64
	for _, n := range notes {
		total += n.Beats
	}
	return total
}

// All contains the built-in songs.
var All = []Song{SongTwinkleStar, SongHappyBirthday, SongScaleC}

// ByID returns a song by its ID, or nil if not found.
func ByID(id string) *Song {
	i := slices.IndexFunc(All, func(s Song) bool { return s.ID == id })
	if i < 0 {
		return nil
	}
	return &All[i]
}

// IDs returns all song IDs.
func IDs() []string {
	ids := make([]string, len(All))
	for i, s := range All {
		ids[i] = s.ID
	}
	return ids
}

var SongTwinkleStar = Song{
	ID:   "twinkle_star",
	Name: "Twinkle Twinkle Little Star",
	BPM:  100,
	Melody: []Note{
		N(C4, Quarter), N(C4, Quarter), N(G4, Quarter), N(G4, Quarter),
		N(A4, Quarter), N(A4, Quarter), N(G4, Half),
		N(F4, Quarter), N(F4, Quarter), N(E4, Quarter), N(E4, Quarter),
		N(D4, Quarter), N(D4, Quarter), N(C4, Half),
		N(G4, Quarter), N(G4, Quarter), N(F4, Quarter), N(F4, Quarter),
		N(E4, Quarter), N(E4, Quarter), N(D4, Half),
		N(C4, Quarter), N(C4, Quarter), N(G4, Quarter), N(G4, Quarter),
		N(A4, Quarter), N(A4, Quarter), N(G4, Half),
		N(F4, Quarter), N(F4, Quarter), N(E4, Quarter), N(E4, Quarter),
		N(D4, Quarter), N(D4, Quarter), N(C4, Half),
	},
	Bass: []Note{
		N(C3, Half), N(E3, Half), N(F3, Half), N(C3, Half),
		N(F3, Half), N(C3, Half), N(G3, Half), N(C3, Half),
		N(C3, Half), N(F3, Half), N(C3, Half), N(G3, Half),
		N(C3, Half), N(E3, Half), N(F3, Half), N(C3, Half),
		N(F3, Half), N(C3, Half), N(G3, Half), N(C3, Half),
	},
}

var SongHappyBirthday = Song{
	ID:   "happy_birthday",
	Name: "Happy Birthday",
	BPM:  120,
	Melody: []Note{
		N(Rest, Quarter), N(Rest, Quarter), N(G3, Eighth), N(G3, Eighth),
		N(A3, Quarter), N(G3, Quarter), N(C4, Quarter),
		N(B3, Half), N(G3, Eighth), N(G3, Eighth),
		N(A3, Quarter), N(G3, Quarter), N(D4, Quarter),
		N(C4, Half), N(G3, Eighth), N(G3, Eighth),
		N(G4, Quarter), N(E4, Quarter), N(C4, Quarter),
		N(B3, Quarter), N(A3, Quarter), N(F4, Eighth), N(F4, Eighth),
		N(E4, Quarter), N(C4, Quarter), N(D4, Quarter),
		N(C4, DotHalf),
	},
	Bass: []Note{
		N(Rest, DotHalf),
		N(C3, DotHalf), N(G3, DotHalf), N(G3, DotHalf), N(C3, DotHalf),
		N(C3, DotHalf), N(F3, DotHalf), N(G3, DotHalf), N(C3, DotHalf),
	},
}

var SongScaleC = Song{
	ID:   "scale_c",
	Name: "C Major Scale",
	BPM:  120,
	Melody: []Note{
		N(C4, Quarter), N(D4, Quarter), N(E4, Quarter), N(F4, Quarter),
		N(G4, Quarter), N(A4, Quarter), N(B4, Quarter), N(C5, Quarter),
		N(B4, Quarter), N(A4, Quarter), N(G4, Quarter), N(F4, Quarter),
		N(E4, Quarter), N(D4, Quarter), N(C4, Whole),
	},
}
