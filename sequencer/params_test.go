package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-stepseq/theory"
)

func TestParamsDefaults(t *testing.T) {
	p := NewParams()
	assert.Equal(t, 16, p.NumSteps())
	assert.Equal(t, RateSixteenth, p.Rate())
	assert.Equal(t, 0.0, p.Swing())
	assert.Equal(t, 0, p.Key())
	assert.Equal(t, theory.Chromatic, p.Scale())
	assert.Equal(t, 0, p.Octave())
}

func TestParamsClamp(t *testing.T) {
	p := NewParams()

	steps := map[int]int{0: 4, 3: 4, 5: 4, 6: 8, 13: 12, 14: 16, 31: 32, 64: 32, -8: 4}
	for in, want := range steps {
		p.SetNumSteps(in)
		assert.Equal(t, want, p.NumSteps(), "numSteps %d", in)
	}

	p.SetRate(Rate(8))
	assert.Equal(t, RateThirtySecond, p.Rate())
	p.SetRate(Rate(-1))
	assert.Equal(t, RateQuarter, p.Rate())

	p.SetSwing(130)
	assert.Equal(t, 100.0, p.Swing())
	p.SetSwing(-3)
	assert.Equal(t, 0.0, p.Swing())

	p.SetKey(14)
	assert.Equal(t, 11, p.Key())

	p.SetScale(theory.Scale(12))
	assert.Equal(t, theory.Pentatonic, p.Scale())

	p.SetOctave(-9)
	assert.Equal(t, -3, p.Octave())
	p.SetOctave(4)
	assert.Equal(t, 3, p.Octave())
}

func TestParamsSnapshotApply(t *testing.T) {
	p := NewParams()
	in := ParamsState{NumSteps: 24, Rate: 1, Swing: 33, Key: 5, Scale: 3, Octave: -1}
	p.Apply(in)
	assert.Equal(t, in, p.Snapshot())
}
