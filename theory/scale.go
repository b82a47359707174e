package theory

import "fmt"

// Scale identifies one of the fixed interval sets a pitch can be constrained to.
type Scale int

const (
	Chromatic Scale = iota
	Major
	Minor
	Dorian
	Phrygian
	Mixolydian
	Pentatonic
)

// NumScales is the number of defined scale modes.
const NumScales = 7

var intervals = [NumScales][]int{
	Chromatic:  {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	Major:      {0, 2, 4, 5, 7, 9, 11},
	Minor:      {0, 2, 3, 5, 7, 8, 10},
	Dorian:     {0, 2, 3, 5, 7, 9, 10},
	Phrygian:   {0, 1, 3, 5, 7, 8, 10},
	Mixolydian: {0, 2, 4, 5, 7, 9, 10},
	Pentatonic: {0, 2, 4, 7, 9},
}

var scaleNames = [NumScales]string{
	"Chromatic", "Major", "Minor", "Dorian", "Phrygian", "Mixolydian", "Pentatonic",
}

var keyNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Valid reports whether s is one of the defined modes.
func (s Scale) Valid() bool {
	return s >= 0 && s < NumScales
}

func (s Scale) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Scale(%d)", int(s))
	}
	return scaleNames[s]
}

// Intervals returns the semitone offsets of the scale relative to its root.
// Unknown modes return the chromatic set.
func (s Scale) Intervals() []int {
	if !s.Valid() {
		return intervals[Chromatic]
	}
	return intervals[s]
}

// ParseScale looks up a scale by name (case-sensitive, as returned by String).
func ParseScale(name string) (Scale, bool) {
	for i, n := range scaleNames {
		if n == name {
			return Scale(i), true
		}
	}
	return Chromatic, false
}

// KeyName returns the pitch-class name for a root note (0 = C).
func KeyName(key int) string {
	return keyNames[mod12(key)]
}

// NoteName formats a MIDI note number, e.g. 60 -> "C4".
func NoteName(note int) string {
	return fmt.Sprintf("%s%d", keyNames[mod12(note)], floorDiv12(note)-1)
}

func mod12(n int) int {
	return ((n % 12) + 12) % 12
}

func floorDiv12(n int) int {
	if n < 0 {
		return (n - 11) / 12
	}
	return n / 12
}
