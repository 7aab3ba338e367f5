package spectral

import (
	"math"
)

// SpectralFlatness computes the ratio of geometric mean to arithmetic mean
// of a magnitude spectrum (Wiener entropy). Values near 0 indicate tonal
// content; values near 1 indicate noise-like content.
type SpectralFlatness struct {
	epsilon float64 // Added per bin to avoid log(0)
}

// NewSpectralFlatness creates a new spectral flatness calculator
func NewSpectralFlatness() *SpectralFlatness {
	return &SpectralFlatness{
		epsilon: 1e-10,
	}
}

// Compute calculates spectral flatness over the full magnitude spectrum
func (sf *SpectralFlatness) Compute(magnitudeSpectrum []float64) float64 {
	if len(magnitudeSpectrum) == 0 {
		return 1.0
	}
	return sf.ComputeBand(magnitudeSpectrum, 0, len(magnitudeSpectrum)-1)
}

// ComputeBand calculates spectral flatness over the inclusive bin range
// [startBin, endBin]. Each bin gets a small epsilon before the log so that
// silent bins contribute a defined value; a fully degenerate band reports
// maximum flatness (1.0, noise) rather than an error.
func (sf *SpectralFlatness) ComputeBand(magnitudeSpectrum []float64, startBin, endBin int) float64 {
	startBin = max(startBin, 0)
	endBin = min(endBin, len(magnitudeSpectrum)-1)

	count := endBin - startBin + 1
	if count <= 0 {
		return 1.0
	}

	sum := 0.0
	logSum := 0.0
	for i := startBin; i <= endBin; i++ {
		value := magnitudeSpectrum[i] + sf.epsilon
		sum += value
		logSum += math.Log(value)
	}

	if sum == 0 {
		return 1.0
	}

	arithmeticMean := sum / float64(count)
	geometricMean := math.Exp(logSum / float64(count))

	return geometricMean / arithmeticMean
}
