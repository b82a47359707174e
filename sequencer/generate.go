package sequencer

import (
	"go-stepseq/debug"
	"go-stepseq/theory"
)

// Randomized step ranges
const (
	randomActiveThreshold = 0.3
	randomMinOctave       = 3
	randomMaxOctave       = 5
	randomMinVelocity     = 60
	randomVelocitySpan    = 60
	randomMinGate         = 0.2
	randomMinProbability  = 0.7

	mutateVelocityRange = 15
	mutateNudge         = 0.1
	mutateMinGate       = 0.1
	mutateMaxGate       = 1.0
	mutateReviveFactor  = 0.1
	mutateReviveVel     = 80
	mutateSearchLimit   = 5
	mutateLeapChance    = 0.7
)

// Euclid spreads hits pulses as evenly as possible over the first n steps
// using a bucket accumulator. Every step loses its active and tied flags
// first. Invalid counts leave steps untouched and return false.
func Euclid(steps []Step, hits, n int) bool {
	if hits <= 0 || n <= 0 || hits > n {
		return false
	}
	for i := range steps {
		steps[i].Active = false
		steps[i].Tied = false
	}
	bucket := 0
	for i := 0; i < n && i < len(steps); i++ {
		bucket += hits
		if bucket >= n {
			bucket -= n
			steps[i].Active = true
		}
	}
	return true
}

// RandomizeSteps replaces each step with probability amount by a fresh
// random step whose note lies in the given key and scale.
func RandomizeSteps(steps []Step, amount float64, key int, scale theory.Scale, rng Random) bool {
	if amount <= 0 {
		return false
	}
	for i := range steps {
		if rng.Float64() >= amount {
			continue
		}
		steps[i] = Step{
			Active:      rng.Float64() > randomActiveThreshold,
			Note:        theory.RandomNoteInScale(key, scale, randomMinOctave, randomMaxOctave, rng),
			Velocity:    randomMinVelocity + rng.IntN(randomVelocitySpan),
			Gate:        randomMinGate + rng.Float64()*(1-randomMinGate),
			Probability: randomMinProbability + rng.Float64()*(1-randomMinProbability),
		}
	}
	return true
}

// MutateSteps nudges active steps and occasionally revives inactive ones.
// Each chosen active step gets one of four nudges: pitch, velocity, gate
// or probability.
func MutateSteps(steps []Step, amount float64, key int, scale theory.Scale, rng Random) bool {
	if amount <= 0 {
		return false
	}
	for i := range steps {
		s := &steps[i]
		if !s.Active {
			if rng.Float64() < amount*mutateReviveFactor {
				s.Active = true
				s.Velocity = mutateReviveVel
			}
			continue
		}
		if rng.Float64() >= amount {
			continue
		}
		switch rng.IntN(4) {
		case 0:
			s.Note = shiftInScale(s.Note, key, scale, rng)
		case 1:
			d := rng.IntN(2*mutateVelocityRange+1) - mutateVelocityRange
			s.Velocity = clampInt(s.Velocity+d, 1, 127)
		case 2:
			s.Gate = clampFloat(s.Gate+nudge(rng), mutateMinGate, mutateMaxGate)
		case 3:
			s.Probability = clampFloat(s.Probability+nudge(rng), 0, 1)
		}
	}
	return true
}

func nudge(rng Random) float64 {
	return rng.Float64()*2*mutateNudge - mutateNudge
}

// shiftInScale moves note one semitone (sometimes two) up or down, then
// walks further in that direction until it lands in scale. The note is
// kept if nothing in scale turns up within the search limit.
func shiftInScale(note, key int, scale theory.Scale, rng Random) int {
	dir := 1
	if rng.IntN(2) == 0 {
		dir = -1
	}
	offset := dir
	if rng.Float64() > mutateLeapChance {
		offset *= 2
	}
	candidate := note + offset
	for tries := 0; tries <= mutateSearchLimit; tries++ {
		if candidate >= 0 && candidate <= 127 && theory.IsNoteInScale(candidate, key, scale) {
			return candidate
		}
		candidate += dir
	}
	return note
}

// EuclideanPattern rewrites the current track with an even distribution
// of hits over steps.
func (s *Store) EuclideanPattern(hits, steps int) {
	s.editCurrent(func(t *Track) bool {
		if !Euclid(t.Steps, hits, steps) {
			return false
		}
		debug.Log("gen", "euclid %d/%d on track %d", hits, steps, s.Current())
		return true
	})
}

// RandomizePattern regenerates roughly amount of the current track.
func (s *Store) RandomizePattern(amount float64) {
	key, scale := s.params.Key(), s.params.Scale()
	s.editCurrent(func(t *Track) bool {
		if !RandomizeSteps(t.Steps, amount, key, scale, s.rng) {
			return false
		}
		debug.Log("gen", "randomize %.2f on track %d", amount, s.Current())
		return true
	})
}

// MutatePattern evolves the current track by small nudges.
func (s *Store) MutatePattern(amount float64) {
	key, scale := s.params.Key(), s.params.Scale()
	s.editCurrent(func(t *Track) bool {
		if !MutateSteps(t.Steps, amount, key, scale, s.rng) {
			return false
		}
		debug.Log("gen", "mutate %.2f on track %d", amount, s.Current())
		return true
	})
}
