package tonal

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/tonereach/pitchcore/algorithms/spectral"
	"github.com/tonereach/pitchcore/algorithms/windowing"
	"github.com/tonereach/pitchcore/logging"
)

const (
	// Minimum FFT size; shorter buffers are zero-padded up to this for
	// usable frequency resolution.
	minFFTSize = 2048

	// Floor for the dynamic peak threshold.
	defaultPeakThreshold = 0.1

	// Boundary between low-frequency and high-frequency handling. Peaks
	// near this boundary sit in a +/-25 Hz transition band with stricter
	// peak tests.
	highFreqThreshold = 300.0
)

// FFTPitchDetector detects monophonic pitch from the magnitude spectrum:
// Blackman-Harris window, zero-padded FFT, dynamic-threshold peak search
// with parabolic refinement, then harmonic validation to reject noise and
// misidentified harmonics. Best suited to high frequencies, where
// time-domain lag methods run out of resolution.
type FFTPitchDetector struct {
	frequencyBounds
	fft    *spectral.FFT
	logger logging.Logger
}

// NewFFTPitchDetector creates an FFT-based detector with the given
// frequency bounds.
func NewFFTPitchDetector(cfg Config) *FFTPitchDetector {
	return &FFTPitchDetector{
		frequencyBounds: newFrequencyBounds(cfg),
		fft:             spectral.NewFFT(),
		logger:          logging.GetGlobalLogger().WithFields(logging.Fields{"component": "fft_pitch"}),
	}
}

// DetectPitch runs the spectral pipeline over the buffer and returns the
// detected fundamental with an SNR-based confidence, or a no-pitch result
// when no validated peak is found.
func (d *FFTPitchDetector) DetectPitch(audioData []float64, sampleRate int) Result {
	if len(audioData) < 2 {
		return noPitch()
	}

	fftSize := max(minFFTSize, spectral.NextPowerOfTwo(len(audioData)))

	window := windowing.NewBlackmanHarris(len(audioData), false)
	windowed := window.Apply(audioData)

	buf := d.fft.PrepareInput(windowed, fftSize)
	d.fft.Transform(buf)
	spectrum := d.fft.Magnitudes(buf)

	frequencyResolution := float64(sampleRate) / float64(fftSize)

	averageMagnitude := stat.Mean(spectrum, nil)

	// A range that reaches into the high frequencies gets a lower bar, so
	// weaker high peaks are not drowned by the spectrum average.
	thresholdMultiplier := 1.5
	if d.maxFrequency > highFreqThreshold {
		thresholdMultiplier = 1.2
	}
	dynamicThreshold := math.Max(defaultPeakThreshold, averageMagnitude*thresholdMultiplier)

	peakBin := d.findPeakBin(spectrum, dynamicThreshold, frequencyResolution)
	if peakBin == -1 {
		d.logger.Debug("no spectral peak above threshold", logging.Fields{
			"threshold": dynamicThreshold,
		})
		return noPitch()
	}

	refinedBin := parabolicInterpolation(spectrum, peakBin)
	frequency := refinedBin * frequencyResolution
	if frequency < d.minFrequency || frequency > d.maxFrequency {
		return noPitch()
	}

	snr := spectrum[peakBin] / (averageMagnitude + 1e-10)
	confidence := math.Min(1.0, snr/10.0)

	// Harmonic validation applies below the high-frequency boundary only.
	// A configured lower bound under 100 Hz signals a rough-detection
	// setup where strict validation would reject legitimate content.
	fundamentalFreq := float64(peakBin) * frequencyResolution
	if fundamentalFreq < highFreqThreshold && d.minFrequency >= 100.0 {
		if !d.validateHarmonics(spectrum, peakBin, frequencyResolution) {
			return noPitch()
		}
	}

	d.logger.Debug("pitch detected", logging.Fields{
		"pitch":      frequency,
		"confidence": confidence,
		"bin":        peakBin,
	})

	return Result{Pitch: frequency, Confidence: confidence}
}

// findPeakBin locates the strongest qualifying local maximum inside the
// configured frequency band. Bins above the high-frequency boundary get a
// 50% threshold reduction, bins inside the transition band a 30% reduction
// plus a stricter prominence test against the bins two positions away.
func (d *FFTPitchDetector) findPeakBin(spectrum []float64, threshold, frequencyResolution float64) int {
	minBin := int(math.Ceil(d.minFrequency / frequencyResolution))
	maxBin := int(math.Floor(d.maxFrequency / frequencyResolution))

	highFreqBin := int(math.Ceil(highFreqThreshold / frequencyResolution))
	transitionLowBin := int(math.Ceil((highFreqThreshold - 25) / frequencyResolution))
	transitionHighBin := int(math.Ceil((highFreqThreshold + 25) / frequencyResolution))

	maxValue := -1.0
	peakBin := -1

	for i := max(1, minBin); i < min(len(spectrum)-1, maxBin); i++ {
		effectiveThreshold := threshold
		inTransition := i >= transitionLowBin && i <= transitionHighBin

		if i >= highFreqBin {
			effectiveThreshold = threshold * 0.5
		} else if inTransition {
			effectiveThreshold = threshold * 0.7
		}

		isLocalPeak := spectrum[i] > effectiveThreshold &&
			spectrum[i] > spectrum[i-1] && spectrum[i] > spectrum[i+1]
		if !isLocalPeak {
			continue
		}

		if inTransition {
			strong := (i <= 1 || spectrum[i] > spectrum[i-2]*0.8) &&
				(i >= len(spectrum)-2 || spectrum[i] > spectrum[i+2]*0.8)
			if !strong {
				continue
			}
		}

		if spectrum[i] > maxValue {
			maxValue = spectrum[i]
			peakBin = i
		}
	}

	return peakBin
}

// validateHarmonics checks that the peak looks like a fundamental rather
// than a stray harmonic or noise: strong sub-harmonics reject it outright,
// then the expected overtones must be present at diminishing thresholds.
func (d *FFTPitchDetector) validateHarmonics(spectrum []float64, peakBin int, frequencyResolution float64) bool {
	fundamentalFreq := float64(peakBin) * frequencyResolution

	transitionLowFreq := highFreqThreshold - 25
	transitionHighFreq := highFreqThreshold + 25

	// A strong half- or third-frequency component means the peak is itself
	// a harmonic of something lower.
	if peakBin >= 4 {
		if spectrum[peakBin/2] > spectrum[peakBin]*0.7 {
			return false
		}
		if spectrum[peakBin/3] > spectrum[peakBin]*0.6 {
			return false
		}
	}

	switch {
	case fundamentalFreq >= transitionLowFreq && fundamentalFreq <= transitionHighFreq:
		harmonic2Bin := peakBin * 2
		harmonic3Bin := peakBin * 3

		harmonic2Valid := harmonic2Bin < len(spectrum) && spectrum[harmonic2Bin] >= spectrum[peakBin]*0.15
		harmonic3Valid := harmonic3Bin < len(spectrum) && spectrum[harmonic3Bin] >= spectrum[peakBin]*0.1

		return harmonic2Valid || harmonic3Valid

	case fundamentalFreq > highFreqThreshold:
		harmonicBin := peakBin * 2
		if harmonicBin < len(spectrum) {
			return spectrum[harmonicBin] >= spectrum[peakBin]*0.15
		}
		return isPeakProminent(spectrum, peakBin)

	default:
		validHarmonics := 0
		totalHarmonics := 0

		for harmonic := 2; harmonic <= 4; harmonic++ {
			harmonicBin := peakBin * harmonic
			if harmonicBin >= len(spectrum) {
				break
			}

			totalHarmonics++
			threshold := 0.2 / float64(harmonic-1)
			if spectrum[harmonicBin] >= spectrum[peakBin]*threshold {
				validHarmonics++
			}
		}

		return totalHarmonics > 0 && float64(validHarmonics) >= float64(totalHarmonics)/2.0
	}
}

// isPeakProminent compares the peak against the average magnitude of a
// 10-bin window on each side, excluding the peak's two nearest neighbors.
// Used when the 2nd harmonic falls past the Nyquist bin.
func isPeakProminent(spectrum []float64, peakBin int) bool {
	const windowSize = 10

	sum := 0.0
	count := 0

	startBin := max(0, peakBin-windowSize)
	endBin := min(len(spectrum)-1, peakBin+windowSize)

	for i := startBin; i <= endBin; i++ {
		if abs(i-peakBin) > 2 {
			sum += spectrum[i]
			count++
		}
	}

	if count == 0 {
		return false
	}

	return spectrum[peakBin] > (sum/float64(count))*3
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
