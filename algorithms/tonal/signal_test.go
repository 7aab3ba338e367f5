package tonal

import (
	"math"
	"math/rand"
)

const testSampleRate = 44100

// sineWave synthesizes amplitude*sin(2*pi*freq*t) over n samples.
func sineWave(freq float64, sampleRate, n int, amplitude float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

// mixedTones sums equal parts of each component frequency.
func mixedTones(sampleRate, n int, freqs ...float64) []float64 {
	samples := make([]float64, n)
	for _, freq := range freqs {
		for i := range samples {
			samples[i] += math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
		}
	}
	return samples
}

// addTone mixes an additional component at the given amplitude into samples.
func addTone(samples []float64, freq float64, sampleRate int, amplitude float64) {
	for i := range samples {
		samples[i] += amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
}

// whiteNoise produces deterministic uniform noise in [-amplitude, amplitude].
func whiteNoise(n int, amplitude float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * (2*rng.Float64() - 1)
	}
	return samples
}

// binFrequency returns the exact frequency of FFT bin k for a transform of
// the given size, avoiding spectral leakage in tests that need clean peaks.
func binFrequency(bin, fftSize, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(fftSize)
}

// withinPercent reports whether got is within pct percent of want.
func withinPercent(got, want, pct float64) bool {
	return math.Abs(got-want) <= want*pct/100.0
}
