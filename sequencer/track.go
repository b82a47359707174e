package sequencer

// MaxSteps is the fixed capacity of every track.
const MaxSteps = 32

// Repeat count bounds for a track.
const (
	MinRepeat = 1
	MaxRepeat = 16
)

// Step defaults
const (
	DefaultNote        = 60
	DefaultVelocity    = 100
	DefaultGate        = 0.5
	DefaultProbability = 1.0
)

// Gate bounds in step lengths. Gates above 1 hold a note across tied steps.
const (
	MinGate = 0.01
	MaxGate = MaxSteps
)

// Step is one rhythmic slot of a track.
type Step struct {
	Active      bool
	Tied        bool
	Note        int
	Velocity    int
	Gate        float64
	Probability float64
}

// DefaultStep returns an inactive step with the default note attributes.
func DefaultStep() Step {
	return Step{
		Note:        DefaultNote,
		Velocity:    DefaultVelocity,
		Gate:        DefaultGate,
		Probability: DefaultProbability,
	}
}

// Clamped returns s with every attribute limited to its legal range.
func (s Step) Clamped() Step {
	s.Note = clampInt(s.Note, 0, 127)
	s.Velocity = clampInt(s.Velocity, 1, 127)
	s.Gate = clampFloat(s.Gate, MinGate, MaxGate)
	s.Probability = clampFloat(s.Probability, 0, 1)
	return s
}

// Track is an ordered run of steps plus its round-robin settings.
type Track struct {
	Steps   []Step
	Repeat  int
	Enabled bool
}

// NewTrack creates an enabled track of MaxSteps default steps.
func NewTrack() Track {
	steps := make([]Step, MaxSteps)
	for i := range steps {
		steps[i] = DefaultStep()
	}
	return Track{Steps: steps, Repeat: MinRepeat, Enabled: true}
}

// Clone deep-copies the track.
func (t Track) Clone() Track {
	steps := make([]Step, len(t.Steps))
	copy(steps, t.Steps)
	t.Steps = steps
	return t
}

// Pattern is an immutable snapshot of every track. Published patterns are
// never written to; edits build a new one.
type Pattern struct {
	Tracks []Track
}

func newPattern() *Pattern {
	return &Pattern{Tracks: []Track{NewTrack()}}
}

// shallowCopy copies the track list; step slices stay shared until
// mutableTrack clones one.
func (p *Pattern) shallowCopy() *Pattern {
	tracks := make([]Track, len(p.Tracks))
	copy(tracks, p.Tracks)
	return &Pattern{Tracks: tracks}
}

func (p *Pattern) mutableTrack(i int) *Track {
	p.Tracks[i] = p.Tracks[i].Clone()
	return &p.Tracks[i]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
