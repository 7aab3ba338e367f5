package tonal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHybridPureTones(t *testing.T) {
	detector := NewHybridDetector(DefaultConfig())

	for _, freq := range []float64{220.0, 440.0, 1200.0} {
		signal := sineWave(freq, testSampleRate, 4096, 1.0)
		result := detector.DetectPitch(signal, testSampleRate)

		require.NotEqual(t, NoDetectedPitch, result.Pitch, "freq %v not detected", freq)
		assert.True(t, withinPercent(result.Pitch, freq, 1.0),
			"detected %v for %v Hz input", result.Pitch, freq)
	}
}

func TestHybridSilence(t *testing.T) {
	detector := NewHybridDetector(DefaultConfig())

	result := detector.DetectPitch(make([]float64, 4096), testSampleRate)
	assert.Equal(t, NoDetectedPitch, result.Pitch)
	assert.Equal(t, 0.0, result.Confidence)

	result = detector.DetectPitch(nil, testSampleRate)
	assert.Equal(t, NoDetectedPitch, result.Pitch)
}

func TestHybridNoiseGate(t *testing.T) {
	detector := NewHybridDetector(DefaultConfig())

	noise := whiteNoise(4096, 1.0, 42)
	result := detector.DetectPitch(noise, testSampleRate)

	assert.Equal(t, NoDetectedPitch, result.Pitch)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestHybridBoundsPropagate(t *testing.T) {
	detector := NewHybridDetector(DefaultConfig())
	detector.SetMinFrequency(500)

	assert.Equal(t, 500.0, detector.MinFrequency())
	assert.Equal(t, 500.0, detector.YIN().MinFrequency())

	// A tone below the propagated bound must fail in every routed detector.
	signal := sineWave(440, testSampleRate, 4096, 1.0)
	result := detector.DetectPitch(signal, testSampleRate)
	assert.Equal(t, NoDetectedPitch, result.Pitch)
}

func TestHybridRoutingConfig(t *testing.T) {
	detector := NewHybridDetector(DefaultConfig())

	assert.Equal(t, DefaultLowBandFrequency, detector.LowBandFrequency())
	assert.Equal(t, DefaultHighBandFrequency, detector.HighBandFrequency())
	assert.Equal(t, DefaultLowBandThreshold, detector.LowBandThreshold())
	assert.Equal(t, DefaultHighBandThreshold, detector.HighBandThreshold())

	detector.SetLowBandFrequency(250)
	detector.SetHighBandFrequency(1000)
	detector.SetLowBandThreshold(500)
	detector.SetHighBandThreshold(300)

	assert.Equal(t, 250.0, detector.LowBandFrequency())
	assert.Equal(t, 1000.0, detector.HighBandFrequency())
	assert.Equal(t, 500.0, detector.LowBandThreshold())
	assert.Equal(t, 300.0, detector.HighBandThreshold())

	// Routing constants affect detector choice, not correctness: a clean
	// tone still resolves after retuning.
	signal := sineWave(440, testSampleRate, 4096, 1.0)
	result := detector.DetectPitch(signal, testSampleRate)
	require.NotEqual(t, NoDetectedPitch, result.Pitch)
	assert.True(t, withinPercent(result.Pitch, 440, 1.0))
}

func TestHybridIdempotent(t *testing.T) {
	detector := NewHybridDetector(DefaultConfig())
	signal := sineWave(659.25, testSampleRate, 4096, 0.8)

	first := detector.DetectPitch(signal, testSampleRate)
	second := detector.DetectPitch(signal, testSampleRate)

	assert.Equal(t, first, second)
}
