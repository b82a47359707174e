package sequencer

import (
	"fmt"
	"math"
)

// Rate is the step length as a fraction of a quarter note.
type Rate int

const (
	RateQuarter Rate = iota
	RateEighth
	RateSixteenth
	RateThirtySecond
)

// NumRates is the number of selectable step rates.
const NumRates = 4

// MinSamplesPerStep keeps extreme tempos from starving the scheduler.
const MinSamplesPerStep = 32.0

var rateMultipliers = [NumRates]float64{1.0, 0.5, 0.25, 0.125}

var rateNames = [NumRates]string{"1/4", "1/8", "1/16", "1/32"}

// Multiplier returns the step length in quarter notes. Unknown rates
// fall back to sixteenths.
func (r Rate) Multiplier() float64 {
	if r < 0 || r >= NumRates {
		return rateMultipliers[RateSixteenth]
	}
	return rateMultipliers[r]
}

func (r Rate) String() string {
	if r < 0 || r >= NumRates {
		return fmt.Sprintf("Rate(%d)", int(r))
	}
	return rateNames[r]
}

// SamplesPerStep converts tempo and rate into a step length in samples,
// floored at MinSamplesPerStep.
func SamplesPerStep(sampleRate, bpm float64, rate Rate) float64 {
	if !(sampleRate > 0) || !(bpm > 0) || math.IsInf(bpm, 0) {
		return MinSamplesPerStep
	}
	sps := sampleRate * 60 / bpm * rate.Multiplier()
	if sps < MinSamplesPerStep {
		return MinSamplesPerStep
	}
	return sps
}

// SwingDelay is how many samples an odd-indexed step is pushed late:
// swingPercent/100 of half a step.
func SwingDelay(samplesPerStep, swingPercent float64) int {
	swing := clampFloat(swingPercent, 0, 100)
	return int(math.Round(swing / 100 * samplesPerStep / 2))
}
