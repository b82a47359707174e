// Package theory answers pitch-class questions for a root note and scale mode.
package theory

// Random is the source of randomness RandomNoteInScale draws from.
type Random interface {
	IntN(n int) int
}

// IsNoteInScale reports whether note belongs to scale rooted at root.
// Any mode outside the defined set imposes no constraint.
func IsNoteInScale(note, root int, scale Scale) bool {
	if !scale.Valid() {
		return true
	}
	rel := mod12(mod12(note) - root)
	for _, iv := range intervals[scale] {
		if iv == rel {
			return true
		}
	}
	return false
}

// RandomNoteInScale picks a uniformly random octave in [minOctave, maxOctave]
// and a uniformly random degree of scale, clamped to the MIDI note range.
func RandomNoteInScale(root int, scale Scale, minOctave, maxOctave int, rng Random) int {
	if maxOctave < minOctave {
		maxOctave = minOctave
	}
	ivs := scale.Intervals()
	octave := minOctave + rng.IntN(maxOctave-minOctave+1)
	note := octave*12 + root + ivs[rng.IntN(len(ivs))]
	return ClampNote(note)
}

// ClampNote limits n to 0..127.
func ClampNote(n int) int {
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return n
}
