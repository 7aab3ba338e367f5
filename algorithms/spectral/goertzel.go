package spectral

import (
	"math"
)

// Goertzel computes the signal energy at a single target frequency without
// a full transform. It is the cheap band-energy probe used to route signals
// between detection algorithms.
//
// The energy is the raw Goertzel power q1^2 + q2^2 - coeff*q1*q2, not a
// normalized magnitude: routing thresholds are tuned against the raw value,
// which grows with both amplitude and buffer length.
type Goertzel struct {
	targetFrequency float64
	sampleRate      int
	coefficient     float64
}

// NewGoertzel creates a detector for the given target frequency and sample
// rate, precomputing the recurrence coefficient 2*cos(2*pi*f/sampleRate).
func NewGoertzel(targetFrequency float64, sampleRate int) *Goertzel {
	omega := 2.0 * math.Pi * targetFrequency / float64(sampleRate)

	return &Goertzel{
		targetFrequency: targetFrequency,
		sampleRate:      sampleRate,
		coefficient:     2.0 * math.Cos(omega),
	}
}

// Energy runs the Goertzel recurrence over the samples and returns the raw
// power at the target frequency. Negative results from floating-point
// cancellation are clamped to zero.
func (g *Goertzel) Energy(samples []float64) float64 {
	var q0, q1, q2 float64

	for _, x := range samples {
		q0 = g.coefficient*q1 - q2 + x
		q2 = q1
		q1 = q0
	}

	energy := q1*q1 + q2*q2 - g.coefficient*q1*q2
	if energy < 0 {
		energy = 0
	}

	return energy
}

// TargetFrequency returns the configured target frequency in Hz
func (g *Goertzel) TargetFrequency() float64 {
	return g.targetFrequency
}

// Coefficient returns the precomputed recurrence coefficient
func (g *Goertzel) Coefficient() float64 {
	return g.coefficient
}
