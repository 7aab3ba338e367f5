package tonal

import (
	"math"

	"github.com/tonereach/pitchcore/logging"
)

// ThresholdStrategy selects how the YIN detector adapts its CMNDF threshold
// to the signal's RMS energy.
type ThresholdStrategy int

const (
	// ThresholdRMSInverse relaxes the threshold as energy drops:
	// min(0.5, 0.4 * (1 + 0.3/(rms+0.01))). Quiet signals get a more
	// permissive threshold, clamped at 0.5.
	ThresholdRMSInverse ThresholdStrategy = iota

	// ThresholdRMSLinear relaxes the threshold linearly in (1-rms):
	// 0.4 * (1 + 0.3*(1-rms)).
	ThresholdRMSLinear
)

// YINDetector implements the YIN autocorrelation-based pitch detection
// algorithm: difference function, cumulative mean normalization, absolute
// threshold with an RMS-adaptive value, and parabolic refinement of the
// selected lag. Best suited to clean monophonic low-to-mid range signals.
type YINDetector struct {
	frequencyBounds
	strategy ThresholdStrategy
	logger   logging.Logger
}

// NewYINDetector creates a YIN detector with the given frequency bounds
func NewYINDetector(cfg Config) *YINDetector {
	return &YINDetector{
		frequencyBounds: newFrequencyBounds(cfg),
		strategy:        ThresholdRMSInverse,
		logger:          logging.GetGlobalLogger().WithFields(logging.Fields{"component": "yin"}),
	}
}

// SetThresholdStrategy selects the RMS adaptation used for the CMNDF
// threshold.
func (d *YINDetector) SetThresholdStrategy(s ThresholdStrategy) {
	d.strategy = s
}

// ThresholdStrategy returns the active RMS adaptation
func (d *YINDetector) ThresholdStrategy() ThresholdStrategy {
	return d.strategy
}

// DetectPitch runs YIN over the buffer and returns the detected fundamental
// with a confidence score, or a no-pitch result when no lag passes the
// threshold test.
func (d *YINDetector) DetectPitch(audioData []float64, sampleRate int) Result {
	if len(audioData) < 4 {
		return noPitch()
	}

	// Lag search bounds from the configured frequency range, widened by a
	// 25-cent margin on each side so that slightly flat or sharp notes at
	// the range edges still resolve.
	maxTau := int(float64(sampleRate) / AddCents(-25, d.minFrequency))
	minTau := int(float64(sampleRate) / AddCents(25, d.maxFrequency))
	if minTau < 1 {
		minTau = 1
	}

	difference := yinDifference(audioData)
	if maxTau > len(difference)-1 {
		maxTau = len(difference) - 1
	}
	if minTau >= maxTau {
		return noPitch()
	}

	cmndf := yinCumulativeMeanNormalized(difference, minTau, maxTau)

	rms := RMS(audioData)
	threshold := d.dynamicThreshold(rms)

	tau := findFirstMinimumBelow(cmndf, threshold, minTau, maxTau)
	if tau == -1 {
		d.logger.Debug("no CMNDF minimum below threshold", logging.Fields{
			"threshold": threshold,
			"rms":       rms,
		})
		return noPitch()
	}

	refinedTau := parabolicInterpolation(cmndf, tau)
	if refinedTau <= 0 {
		return noPitch()
	}

	// The ratio cmndf/threshold is below 1 at the accepted lag; squaring it
	// penalizes marginal detections harder than clear ones.
	ratio := cmndf[tau] / threshold
	confidence := 1.0 - ratio*ratio

	pitch := float64(sampleRate) / refinedTau

	d.logger.Debug("pitch detected", logging.Fields{
		"pitch":      pitch,
		"confidence": confidence,
		"tau":        tau,
	})

	return Result{Pitch: pitch, Confidence: confidence}
}

// dynamicThreshold computes the RMS-adaptive CMNDF acceptance threshold
func (d *YINDetector) dynamicThreshold(rms float64) float64 {
	switch d.strategy {
	case ThresholdRMSLinear:
		return 0.4 * (1.0 + 0.3*(1.0-rms))
	default:
		return math.Min(0.5, 0.4*(1.0+0.3/(rms+0.01)))
	}
}

// yinDifference computes the difference function
// d(tau) = sum_i (x[i] - x[i+tau])^2 for tau in [0, len/2), with the
// square expanded over precomputed sample squares.
func yinDifference(audioData []float64) []float64 {
	audioSquared := make([]float64, len(audioData))
	for i, sample := range audioData {
		audioSquared[i] = sample * sample
	}

	w := len(audioData) / 2
	difference := make([]float64, w)

	for tau := range difference {
		sum := 0.0
		for i := 0; i < w; i++ {
			sum += audioSquared[i] + audioSquared[i+tau] - 2*audioData[i]*audioData[i+tau]
		}
		difference[tau] = sum
	}

	return difference
}

// yinCumulativeMeanNormalized converts the difference function into the
// cumulative mean normalized difference function within [minTau, maxTau].
// cmndf[0] and out-of-range lags are pinned to 1 so they can never pass the
// threshold test; a tiny epsilon guards division by zero on silence.
func yinCumulativeMeanNormalized(difference []float64, minTau, maxTau int) []float64 {
	cmndf := make([]float64, len(difference))
	if len(cmndf) == 0 {
		return cmndf
	}
	cmndf[0] = 1.0

	runningSum := 0.0
	for tau := 1; tau < len(difference); tau++ {
		runningSum += difference[tau]
		if tau >= minTau && tau <= maxTau {
			cmndf[tau] = difference[tau] / (runningSum/float64(tau) + 1e-10)
		} else {
			cmndf[tau] = 1.0
		}
	}

	return cmndf
}

// findFirstMinimumBelow scans [minTau, maxTau) for the first strict local
// minimum of the CMNDF that falls below the threshold, returning -1 when
// none exists.
func findFirstMinimumBelow(cmndf []float64, threshold float64, minTau, maxTau int) int {
	for tau := minTau; tau < maxTau; tau++ {
		if cmndf[tau] < threshold && isLocalMinimum(cmndf, tau) {
			return tau
		}
	}
	return -1
}
