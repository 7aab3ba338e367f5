package spectral

import (
	"gonum.org/v1/gonum/stat"
)

// ZeroCrossingRate calculates zero crossing rates for signal classification.
// Tonal signals cross zero at roughly twice their fundamental frequency;
// broadband noise approaches the maximum possible crossing rate.
type ZeroCrossingRate struct {
	sampleRate int
}

// NewZeroCrossingRate creates a new zero crossing rate calculator
func NewZeroCrossingRate(sampleRate int) *ZeroCrossingRate {
	return &ZeroCrossingRate{
		sampleRate: sampleRate,
	}
}

// Compute calculates ZCR for a frame as crossings per second
func (zcr *ZeroCrossingRate) Compute(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	crossings := countCrossings(frame)

	frameDuration := float64(len(frame)) / float64(zcr.sampleRate)
	return float64(crossings) / frameDuration
}

// ComputeNormalized calculates ZCR normalized by the maximum possible
// number of crossings (an alternating signal), yielding a 0-1 value
func (zcr *ZeroCrossingRate) ComputeNormalized(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	crossings := countCrossings(frame)

	maxCrossings := len(frame) - 1
	return float64(crossings) / float64(maxCrossings)
}

func countCrossings(frame []float64) int {
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0 && frame[i] < 0) || (frame[i-1] < 0 && frame[i] >= 0) {
			crossings++
		}
	}
	return crossings
}

// ComputeStatistics summarizes a sequence of ZCR values using gonum
func (zcr *ZeroCrossingRate) ComputeStatistics(zcrValues []float64) (mean, variance float64) {
	if len(zcrValues) == 0 {
		return 0, 0
	}

	mean = stat.Mean(zcrValues, nil)
	variance = stat.Variance(zcrValues, nil)
	return mean, variance
}
