package tonal

import (
	"math"
)

// NoDetectedPitch is the sentinel pitch value reported when a detector
// cannot find a fundamental frequency. Confidence is always 0.0 when the
// pitch is the sentinel.
const NoDetectedPitch = -1.0

// Default frequency bounds in Hz: a ten-hole diatonic harmonica's playable
// range with margin on both ends.
const (
	DefaultMinFrequency = 80.0
	DefaultMaxFrequency = 4835.0
)

// Result is the outcome of a monophonic pitch detection call.
type Result struct {
	Pitch      float64 `json:"pitch"`      // Detected pitch in Hz, or NoDetectedPitch
	Confidence float64 `json:"confidence"` // Confidence score (0-1)
}

// noPitch is the canonical "nothing found" result.
func noPitch() Result {
	return Result{Pitch: NoDetectedPitch, Confidence: 0.0}
}

// ChordResult is the outcome of a polyphonic detection call. Pitches may be
// empty for silence or noise; the order follows the detection pipeline's
// priority, not a frequency sort.
type ChordResult struct {
	Pitches    []float64 `json:"pitches"`
	Confidence float64   `json:"confidence"`
}

// HasPitches reports whether any pitch was detected
func (r ChordResult) HasPitches() bool {
	return len(r.Pitches) > 0
}

// PitchCount returns the number of detected pitches
func (r ChordResult) PitchCount() int {
	return len(r.Pitches)
}

// Pitch returns the pitch at index i, or NoDetectedPitch out of range
func (r ChordResult) Pitch(i int) float64 {
	if i < 0 || i >= len(r.Pitches) {
		return NoDetectedPitch
	}
	return r.Pitches[i]
}

// Config carries the frequency bounds a detector searches within. Each
// detector owns its copy, so concurrent detectors with different ranges are
// safe as long as callers do not mutate one detector from two goroutines.
// The engine does not enforce MinFrequency < MaxFrequency; that is caller
// responsibility.
type Config struct {
	MinFrequency float64 `json:"min_frequency"` // Minimum detectable frequency (Hz)
	MaxFrequency float64 `json:"max_frequency"` // Maximum detectable frequency (Hz)
}

// DefaultConfig returns the harmonica-range defaults
func DefaultConfig() Config {
	return Config{
		MinFrequency: DefaultMinFrequency,
		MaxFrequency: DefaultMaxFrequency,
	}
}

// Detector is the contract shared by the monophonic detectors. All
// implementations are pure functions of (buffer, sampleRate, configured
// bounds): no retained buffers, no hidden state between calls.
type Detector interface {
	DetectPitch(audioData []float64, sampleRate int) Result
}

// frequencyBounds provides the shared min/max frequency configuration
// surface embedded by every detector.
type frequencyBounds struct {
	minFrequency float64
	maxFrequency float64
}

func newFrequencyBounds(cfg Config) frequencyBounds {
	return frequencyBounds{
		minFrequency: cfg.MinFrequency,
		maxFrequency: cfg.MaxFrequency,
	}
}

// SetMinFrequency sets the lower bound of the detection range in Hz
func (b *frequencyBounds) SetMinFrequency(hz float64) {
	b.minFrequency = hz
}

// SetMaxFrequency sets the upper bound of the detection range in Hz
func (b *frequencyBounds) SetMaxFrequency(hz float64) {
	b.maxFrequency = hz
}

// MinFrequency returns the lower bound of the detection range in Hz
func (b *frequencyBounds) MinFrequency() float64 {
	return b.minFrequency
}

// MaxFrequency returns the upper bound of the detection range in Hz
func (b *frequencyBounds) MaxFrequency() float64 {
	return b.maxFrequency
}

// AddCents shifts a frequency by the given number of cents
// (1 cent = 1/100 semitone): f * 2^(cents/1200).
func AddCents(cents, frequency float64) float64 {
	return math.Pow(2.0, cents/1200.0) * frequency
}

// RMS calculates the root mean square of an audio signal, the energy
// measure the adaptive thresholds key off.
func RMS(audioData []float64) float64 {
	if len(audioData) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range audioData {
		sum += sample * sample
	}
	return math.Sqrt(sum / float64(len(audioData)))
}

// parabolicInterpolation refines a discrete peak or valley index with a
// 3-point quadratic fit. Returns the index unchanged at array edges, when
// the denominator is near zero, or when the adjustment exceeds one bin
// (which indicates the fit is meaningless).
func parabolicInterpolation(values []float64, peakIndex int) float64 {
	if peakIndex <= 0 || peakIndex >= len(values)-1 {
		return float64(peakIndex)
	}

	x0 := values[peakIndex-1]
	x1 := values[peakIndex]
	x2 := values[peakIndex+1]

	denominator := x0 - 2*x1 + x2
	if math.Abs(denominator) < 1e-10 {
		return float64(peakIndex)
	}

	adjustment := 0.5 * (x0 - x2) / denominator
	if math.Abs(adjustment) > 1 {
		adjustment = 0
	}

	return float64(peakIndex) + adjustment
}

// isLocalMinimum reports whether index is a strict local minimum
func isLocalMinimum(values []float64, index int) bool {
	if index <= 0 || index >= len(values)-1 {
		return false
	}
	return values[index] < values[index-1] && values[index] < values[index+1]
}
