package tonal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/tonereach/pitchcore/algorithms/spectral"
	"github.com/tonereach/pitchcore/algorithms/windowing"
	"github.com/tonereach/pitchcore/logging"
)

const (
	// Minimum normalized magnitude for a spectral peak candidate.
	chordPeakThreshold = 0.05

	// Peaks closer than this are merged into one weighted peak.
	minPeakDistanceHz = 25.0

	// Upper bound on reported simultaneous pitches.
	maxChordPitches = 4

	// Spectral flatness above this classifies the buffer as noise.
	chordFlatnessThreshold = 0.4

	// How close a frequency ratio must sit to an integer to count as a
	// harmonic relationship.
	harmonicTolerance = 0.05
)

// spectralPeak is one candidate in the chord pipeline.
type spectralPeak struct {
	frequency float64
	magnitude float64
}

// ChordDetector identifies up to four simultaneous pitches from the
// magnitude spectrum. The pipeline gates on spectral flatness, normalizes,
// finds peaks, filters harmonics and overtones (with an explicit octave
// exemption), prioritizes lower fundamentals, and merges near-coincident
// peaks.
type ChordDetector struct {
	frequencyBounds
	fft      *spectral.FFT
	flatness *spectral.SpectralFlatness
	logger   logging.Logger
}

// NewChordDetector creates a chord detector with the given frequency bounds
func NewChordDetector(cfg Config) *ChordDetector {
	return &ChordDetector{
		frequencyBounds: newFrequencyBounds(cfg),
		fft:             spectral.NewFFT(),
		flatness:        spectral.NewSpectralFlatness(),
		logger:          logging.GetGlobalLogger().WithFields(logging.Fields{"component": "chord"}),
	}
}

// DetectChord analyzes the buffer for simultaneous pitches. Silence and
// noise yield an empty result with confidence 0.
func (d *ChordDetector) DetectChord(audioData []float64, sampleRate int) ChordResult {
	if len(audioData) < 2 {
		return ChordResult{}
	}

	fftSize := max(1024, spectral.NextPowerOfTwo(len(audioData)))

	window := windowing.NewHann(len(audioData), false)
	windowed := window.Apply(audioData)

	buf := d.fft.PrepareInput(windowed, fftSize)
	d.fft.Transform(buf)
	spectrum := d.fft.Magnitudes(buf)

	// Flatness over the configured band only; DC and out-of-band bins
	// would skew the noise estimate.
	startBin := max(1, int(d.minFrequency*float64(len(spectrum))/float64(sampleRate/2)))
	endBin := min(len(spectrum)-1, int(d.maxFrequency*float64(len(spectrum))/float64(sampleRate/2)))
	flatness := d.flatness.ComputeBand(spectrum, startBin, endBin)

	if flatness > chordFlatnessThreshold {
		d.logger.Debug("buffer classified as noise", logging.Fields{
			"flatness": flatness,
		})
		return ChordResult{}
	}

	if maxMagnitude := floats.Max(spectrum); maxMagnitude > 0 {
		for i := range spectrum {
			spectrum[i] /= maxMagnitude
		}
	}

	peaks := findSpectralPeaks(spectrum, sampleRate, fftSize, chordPeakThreshold)
	peaks = d.filterRange(peaks)
	peaks = filterHarmonics(peaks)
	peaks = prioritizeLowerFrequencies(peaks)
	peaks = mergeClosePeaks(peaks)

	if len(peaks) == 0 {
		return ChordResult{}
	}

	// Confidence reflects the full set of surviving peaks, including any
	// that the pitch cap trims off.
	confidence := 0.0
	for _, p := range peaks {
		confidence += p.magnitude
	}
	confidence /= float64(len(peaks))

	if len(peaks) > maxChordPitches {
		peaks = peaks[:maxChordPitches]
	}

	pitches := make([]float64, len(peaks))
	for i, p := range peaks {
		pitches[i] = p.frequency
	}

	d.logger.Debug("chord detected", logging.Fields{
		"pitches":    pitches,
		"confidence": confidence,
	})

	return ChordResult{Pitches: pitches, Confidence: confidence}
}

// DetectPitch reports the dominant pitch of the chord result, making the
// chord detector usable wherever a monophonic Detector is expected.
func (d *ChordDetector) DetectPitch(audioData []float64, sampleRate int) Result {
	chord := d.DetectChord(audioData, sampleRate)
	if !chord.HasPitches() {
		return noPitch()
	}
	return Result{Pitch: chord.Pitch(0), Confidence: chord.Confidence}
}

// findSpectralPeaks collects strict local maxima above the threshold and
// returns them sorted by magnitude descending.
func findSpectralPeaks(spectrum []float64, sampleRate, fftSize int, threshold float64) []spectralPeak {
	frequencyResolution := float64(sampleRate) / float64(fftSize)

	var peaks []spectralPeak
	for i := 1; i < len(spectrum)-1; i++ {
		if spectrum[i] > threshold && spectrum[i] > spectrum[i-1] && spectrum[i] > spectrum[i+1] {
			peaks = append(peaks, spectralPeak{
				frequency: float64(i) * frequencyResolution,
				magnitude: spectrum[i],
			})
		}
	}

	sort.Slice(peaks, func(a, b int) bool {
		return peaks[a].magnitude > peaks[b].magnitude
	})

	return peaks
}

// filterRange drops peaks outside the configured frequency band
func (d *ChordDetector) filterRange(peaks []spectralPeak) []spectralPeak {
	filtered := peaks[:0]
	for _, p := range peaks {
		if p.frequency >= d.minFrequency && p.frequency <= d.maxFrequency {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// filterHarmonics removes peaks that are likely overtones of a stronger
// peak: a frequency ratio near an integer multiple combined with a much
// weaker magnitude. Octaves (ratio near 2) always pass, and ratios above 5
// are treated as independent tones.
func filterHarmonics(peaks []spectralPeak) []spectralPeak {
	var filtered []spectralPeak

	for i, candidate := range peaks {
		isHarmonic := false

		for j := 0; j < i; j++ {
			ratio := candidate.frequency / peaks[j].frequency

			if math.Abs(ratio-2.0) < 0.1 {
				continue
			}

			nearest := math.Round(ratio)
			if nearest >= 2 && math.Abs(ratio-nearest) < harmonicTolerance {
				if ratio > 5.0 {
					continue
				}
				if candidate.magnitude < peaks[j].magnitude*0.3 {
					isHarmonic = true
					break
				}
			}
		}

		if !isHarmonic {
			filtered = append(filtered, candidate)
		}
	}

	return filtered
}

// prioritizeLowerFrequencies re-sorts peaks frequency-ascending and drops
// any peak markedly weaker than an already-accepted lower-frequency peak.
func prioritizeLowerFrequencies(peaks []spectralPeak) []spectralPeak {
	sort.Slice(peaks, func(a, b int) bool {
		return peaks[a].frequency < peaks[b].frequency
	})

	var prioritized []spectralPeak
	for _, peak := range peaks {
		overridden := false

		for _, lower := range prioritized {
			if peak.frequency > lower.frequency && peak.magnitude < lower.magnitude*0.6 {
				overridden = true
				break
			}
		}

		if !overridden {
			prioritized = append(prioritized, peak)
		}
	}

	return prioritized
}

// mergeClosePeaks walks frequency-ascending peaks and merges runs closer
// than minPeakDistanceHz into a single magnitude-weighted peak.
func mergeClosePeaks(peaks []spectralPeak) []spectralPeak {
	if len(peaks) == 0 {
		return peaks
	}

	var merged []spectralPeak
	current := peaks[0]

	for _, next := range peaks[1:] {
		if math.Abs(next.frequency-current.frequency) < minPeakDistanceHz {
			total := current.magnitude + next.magnitude
			current = spectralPeak{
				frequency: (current.frequency*current.magnitude + next.frequency*next.magnitude) / total,
				magnitude: total,
			}
		} else {
			merged = append(merged, current)
			current = next
		}
	}

	return append(merged, current)
}
