package sequencer

import "math/rand/v2"

// Random is the uniform source shared by the generators and the engine's
// probability gate. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}

// globalRandom draws from the math/rand/v2 top-level generator, which is
// safe for concurrent use and does not lock.
type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }
func (globalRandom) IntN(n int) int   { return rand.IntN(n) }

// DefaultRandom is the process-wide source.
var DefaultRandom Random = globalRandom{}
