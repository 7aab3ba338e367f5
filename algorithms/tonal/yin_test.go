package tonal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYINPureTones(t *testing.T) {
	detector := NewYINDetector(DefaultConfig())

	for _, freq := range []float64{196.0, 440.0, 880.0} {
		signal := sineWave(freq, testSampleRate, 4096, 1.0)
		result := detector.DetectPitch(signal, testSampleRate)

		require.NotEqual(t, NoDetectedPitch, result.Pitch, "freq %v not detected", freq)
		assert.True(t, withinPercent(result.Pitch, freq, 1.0),
			"detected %v for %v Hz input", result.Pitch, freq)
		assert.Greater(t, result.Confidence, 0.3)
	}
}

func TestYINSilence(t *testing.T) {
	detector := NewYINDetector(DefaultConfig())

	result := detector.DetectPitch(make([]float64, 4096), testSampleRate)

	assert.Equal(t, NoDetectedPitch, result.Pitch)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestYINShortBuffer(t *testing.T) {
	detector := NewYINDetector(DefaultConfig())

	for _, n := range []int{0, 1, 3} {
		result := detector.DetectPitch(make([]float64, n), testSampleRate)
		assert.Equal(t, NoDetectedPitch, result.Pitch, "buffer length %d", n)
	}
}

func TestYINRangeFilter(t *testing.T) {
	detector := NewYINDetector(Config{MinFrequency: 500, MaxFrequency: 4835})

	// 440 Hz sits below the configured range; its period is outside the
	// searched lag window and must not be reported.
	signal := sineWave(440, testSampleRate, 4096, 1.0)
	result := detector.DetectPitch(signal, testSampleRate)

	assert.Equal(t, NoDetectedPitch, result.Pitch)
}

func TestYINThresholdStrategies(t *testing.T) {
	signal := sineWave(440, testSampleRate, 4096, 0.5)

	for _, strategy := range []ThresholdStrategy{ThresholdRMSInverse, ThresholdRMSLinear} {
		detector := NewYINDetector(DefaultConfig())
		detector.SetThresholdStrategy(strategy)
		assert.Equal(t, strategy, detector.ThresholdStrategy())

		result := detector.DetectPitch(signal, testSampleRate)
		require.NotEqual(t, NoDetectedPitch, result.Pitch, "strategy %v", strategy)
		assert.True(t, withinPercent(result.Pitch, 440, 1.0),
			"strategy %v detected %v", strategy, result.Pitch)
	}
}

func TestYINIdempotent(t *testing.T) {
	detector := NewYINDetector(DefaultConfig())
	signal := sineWave(330, testSampleRate, 4096, 0.8)

	first := detector.DetectPitch(signal, testSampleRate)
	second := detector.DetectPitch(signal, testSampleRate)

	assert.Equal(t, first, second)
}
