package sequencer

import (
	"math"
	"sync/atomic"

	"go-stepseq/theory"
)

// Parameter bounds
const (
	MinNumSteps  = 4
	StepQuantum  = 4
	MinOctave    = -3
	MaxOctave    = 3
	MaxSwing     = 100.0
	DefaultSteps = 16
)

// Params holds the global, UI-bound settings. Writers clamp; the audio
// thread reads each value atomically.
type Params struct {
	numSteps atomic.Int32
	rate     atomic.Int32
	swing    atomic.Uint64 // float64 bits
	key      atomic.Int32
	scale    atomic.Int32
	octave   atomic.Int32
}

// ParamsState is the plain-value form of Params used for persistence.
type ParamsState struct {
	NumSteps int     `json:"numSteps" yaml:"numSteps"`
	Rate     int     `json:"rate" yaml:"rate"`
	Swing    float64 `json:"swing" yaml:"swing"`
	Key      int     `json:"key" yaml:"key"`
	Scale    int     `json:"scale" yaml:"scale"`
	Octave   int     `json:"octave" yaml:"octave"`
}

// DefaultParams returns the settings a fresh instance starts with.
func DefaultParams() ParamsState {
	return ParamsState{
		NumSteps: DefaultSteps,
		Rate:     int(RateSixteenth),
		Key:      0,
		Scale:    int(theory.Chromatic),
	}
}

func NewParams() *Params {
	p := &Params{}
	p.Apply(DefaultParams())
	return p
}

// SetNumSteps snaps n to a multiple of 4 within [4, 32].
func (p *Params) SetNumSteps(n int) {
	n = (n + StepQuantum/2) / StepQuantum * StepQuantum
	p.numSteps.Store(int32(clampInt(n, MinNumSteps, MaxSteps)))
}

func (p *Params) NumSteps() int { return int(p.numSteps.Load()) }

func (p *Params) SetRate(r Rate) {
	p.rate.Store(int32(clampInt(int(r), 0, NumRates-1)))
}

func (p *Params) Rate() Rate { return Rate(p.rate.Load()) }

func (p *Params) SetSwing(percent float64) {
	p.swing.Store(math.Float64bits(clampFloat(percent, 0, MaxSwing)))
}

func (p *Params) Swing() float64 { return math.Float64frombits(p.swing.Load()) }

func (p *Params) SetKey(k int) {
	p.key.Store(int32(clampInt(k, 0, 11)))
}

func (p *Params) Key() int { return int(p.key.Load()) }

func (p *Params) SetScale(s theory.Scale) {
	p.scale.Store(int32(clampInt(int(s), 0, theory.NumScales-1)))
}

func (p *Params) Scale() theory.Scale { return theory.Scale(p.scale.Load()) }

func (p *Params) SetOctave(o int) {
	p.octave.Store(int32(clampInt(o, MinOctave, MaxOctave)))
}

func (p *Params) Octave() int { return int(p.octave.Load()) }

// Snapshot copies the current values.
func (p *Params) Snapshot() ParamsState {
	return ParamsState{
		NumSteps: p.NumSteps(),
		Rate:     int(p.Rate()),
		Swing:    p.Swing(),
		Key:      p.Key(),
		Scale:    int(p.Scale()),
		Octave:   p.Octave(),
	}
}

// Apply stores every value of s, clamped.
func (p *Params) Apply(s ParamsState) {
	p.SetNumSteps(s.NumSteps)
	p.SetRate(Rate(s.Rate))
	p.SetSwing(s.Swing)
	p.SetKey(s.Key)
	p.SetScale(theory.Scale(s.Scale))
	p.SetOctave(s.Octave)
}
