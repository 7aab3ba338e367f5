package tonal

import (
	"github.com/tonereach/pitchcore/logging"
)

// Minimum normalized correlation a lag must reach to count as a pitch
// candidate.
const mpmPeakThreshold = 0.5

// MPMDetector implements the McLeod Pitch Method: a normalized square
// difference function (NSDF) scanned for the first peak above a clarity
// threshold. Robust across the mid range and cheaper to reason about than a
// spectral detector.
//
// Candidate selection takes the first qualifying peak rather than the
// highest one. With the clarity threshold at 0.5 the first peak is the
// fundamental on the harmonica-like signals this detector targets, and the
// simpler rule avoids octave errors from strong second-harmonic peaks.
type MPMDetector struct {
	frequencyBounds
	logger logging.Logger
}

// NewMPMDetector creates an MPM detector with the given frequency bounds
func NewMPMDetector(cfg Config) *MPMDetector {
	return &MPMDetector{
		frequencyBounds: newFrequencyBounds(cfg),
		logger:          logging.GetGlobalLogger().WithFields(logging.Fields{"component": "mpm"}),
	}
}

// DetectPitch runs MPM over the buffer and returns the detected fundamental
// with the NSDF value at the chosen lag as confidence, or a no-pitch result
// when no lag clears the clarity threshold.
func (d *MPMDetector) DetectPitch(audioData []float64, sampleRate int) Result {
	n := len(audioData)
	if n < 4 {
		return noPitch()
	}

	// The lag window is widened by 10% at both ends so edge-of-range
	// frequencies keep a usable peak neighborhood.
	minLag := int(float64(sampleRate) / (d.maxFrequency * 1.1))
	if minLag < 1 {
		minLag = 1
	}
	maxLag := int(float64(sampleRate) / (d.minFrequency * 0.9))
	if maxLag > n/2 {
		maxLag = n / 2
	}
	if maxLag <= minLag {
		return noPitch()
	}

	nsdf := computeNSDF(audioData, minLag, maxLag)

	peakLag := firstNSDFPeak(nsdf, minLag)
	if peakLag <= 0 {
		d.logger.Debug("no NSDF peak above threshold", logging.Fields{
			"min_lag": minLag,
			"max_lag": maxLag,
		})
		return noPitch()
	}

	// Confidence reads the NSDF at the unrefined lag; refinement only
	// sharpens the frequency estimate.
	confidence := nsdf[peakLag-minLag]
	refinedLag := parabolicInterpolation(nsdf, peakLag-minLag) + float64(minLag)
	pitch := float64(sampleRate) / refinedLag

	d.logger.Debug("pitch detected", logging.Fields{
		"pitch":      pitch,
		"confidence": confidence,
		"lag":        peakLag,
	})

	return Result{Pitch: pitch, Confidence: confidence}
}

// computeNSDF evaluates the normalized square difference function
// nsdf(lag) = 2*sum(x[i]*x[i+lag]) / sum(x[i]^2 + x[i+lag]^2) for lags in
// [minLag, maxLag), indexed from minLag. A zero denominator (silence)
// yields 0.
func computeNSDF(audioData []float64, minLag, maxLag int) []float64 {
	n := len(audioData)
	nsdf := make([]float64, maxLag-minLag)

	for lag := minLag; lag < maxLag; lag++ {
		acf := 0.0
		divisor := 0.0
		for i := 0; i+lag < n; i++ {
			acf += audioData[i] * audioData[i+lag]
			divisor += audioData[i]*audioData[i] + audioData[i+lag]*audioData[i+lag]
		}

		if divisor > 0 {
			nsdf[lag-minLag] = 2.0 * acf / divisor
		}
	}

	return nsdf
}

// firstNSDFPeak returns the absolute lag of the first strict local maximum
// above the clarity threshold, or -1 when none qualifies.
func firstNSDFPeak(nsdf []float64, minLag int) int {
	for i := 1; i < len(nsdf)-1; i++ {
		if nsdf[i] > mpmPeakThreshold && nsdf[i] > nsdf[i-1] && nsdf[i] > nsdf[i+1] {
			return i + minLag
		}
	}
	return -1
}
