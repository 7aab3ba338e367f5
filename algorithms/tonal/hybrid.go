package tonal

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/tonereach/pitchcore/algorithms/spectral"
	"github.com/tonereach/pitchcore/logging"
)

// Defaults for the hybrid routing. The probe frequencies and energy
// thresholds were tuned empirically against harmonica recordings and are
// exposed as a configuration surface rather than baked in.
const (
	DefaultLowBandFrequency  = 275.0
	DefaultHighBandFrequency = 900.0
	DefaultLowBandThreshold  = 750.0
	DefaultHighBandThreshold = 400.0
)

// Noise gate constants: broadband noise shows a high coefficient of
// variation together with a high normalized zero-crossing rate.
const (
	noiseCVThreshold  = 5.0
	noiseZCRThreshold = 0.4
)

// HybridDetector routes each buffer to the monophonic detector best suited
// to its spectral content. A noise gate rejects broadband input, then cheap
// Goertzel probes at a low-band and a high-band frequency decide between
// YIN (low content), FFT (high content) and MPM (mid range). A failed
// preferred detector falls back to MPM and finally YIN before giving up.
//
// The detector keeps no state between calls; it is safe to reuse across
// buffers as long as configuration is not mutated concurrently.
type HybridDetector struct {
	frequencyBounds

	yin *YINDetector
	mpm *MPMDetector
	fft *FFTPitchDetector

	lowBandFrequency  float64
	highBandFrequency float64
	lowBandThreshold  float64
	highBandThreshold float64

	logger logging.Logger
}

// NewHybridDetector creates a hybrid detector with the given frequency
// bounds, propagated to the underlying detectors.
func NewHybridDetector(cfg Config) *HybridDetector {
	return &HybridDetector{
		frequencyBounds:   newFrequencyBounds(cfg),
		yin:               NewYINDetector(cfg),
		mpm:               NewMPMDetector(cfg),
		fft:               NewFFTPitchDetector(cfg),
		lowBandFrequency:  DefaultLowBandFrequency,
		highBandFrequency: DefaultHighBandFrequency,
		lowBandThreshold:  DefaultLowBandThreshold,
		highBandThreshold: DefaultHighBandThreshold,
		logger:            logging.GetGlobalLogger().WithFields(logging.Fields{"component": "hybrid"}),
	}
}

// SetMinFrequency sets the lower detection bound on this detector and all
// underlying detectors.
func (d *HybridDetector) SetMinFrequency(hz float64) {
	d.frequencyBounds.SetMinFrequency(hz)
	d.yin.SetMinFrequency(hz)
	d.mpm.SetMinFrequency(hz)
	d.fft.SetMinFrequency(hz)
}

// SetMaxFrequency sets the upper detection bound on this detector and all
// underlying detectors.
func (d *HybridDetector) SetMaxFrequency(hz float64) {
	d.frequencyBounds.SetMaxFrequency(hz)
	d.yin.SetMaxFrequency(hz)
	d.mpm.SetMaxFrequency(hz)
	d.fft.SetMaxFrequency(hz)
}

// SetLowBandFrequency sets the low-band Goertzel probe frequency in Hz
func (d *HybridDetector) SetLowBandFrequency(hz float64) { d.lowBandFrequency = hz }

// LowBandFrequency returns the low-band Goertzel probe frequency in Hz
func (d *HybridDetector) LowBandFrequency() float64 { return d.lowBandFrequency }

// SetHighBandFrequency sets the high-band Goertzel probe frequency in Hz
func (d *HybridDetector) SetHighBandFrequency(hz float64) { d.highBandFrequency = hz }

// HighBandFrequency returns the high-band Goertzel probe frequency in Hz
func (d *HybridDetector) HighBandFrequency() float64 { return d.highBandFrequency }

// SetLowBandThreshold sets the energy above which YIN is preferred
func (d *HybridDetector) SetLowBandThreshold(energy float64) { d.lowBandThreshold = energy }

// LowBandThreshold returns the energy above which YIN is preferred
func (d *HybridDetector) LowBandThreshold() float64 { return d.lowBandThreshold }

// SetHighBandThreshold sets the energy above which FFT is preferred
func (d *HybridDetector) SetHighBandThreshold(energy float64) { d.highBandThreshold = energy }

// HighBandThreshold returns the energy above which FFT is preferred
func (d *HybridDetector) HighBandThreshold() float64 { return d.highBandThreshold }

// YIN returns the underlying YIN detector for strategy configuration
func (d *HybridDetector) YIN() *YINDetector { return d.yin }

// DetectPitch routes the buffer to the best-suited detector and returns
// the first successful result, or a no-pitch result when the gate rejects
// the signal or every detector fails.
func (d *HybridDetector) DetectPitch(audioData []float64, sampleRate int) Result {
	if len(audioData) == 0 {
		return noPitch()
	}

	if d.isLikelyNoise(audioData, sampleRate) {
		d.logger.Debug("noise gate rejected buffer")
		return noPitch()
	}

	lowEnergy := spectral.NewGoertzel(d.lowBandFrequency, sampleRate).Energy(audioData)

	if lowEnergy > d.lowBandThreshold {
		d.logger.Debug("routing to YIN", logging.Fields{"low_energy": lowEnergy})
		if result := d.yin.DetectPitch(audioData, sampleRate); result.Pitch != NoDetectedPitch {
			return result
		}
		if result := d.mpm.DetectPitch(audioData, sampleRate); result.Pitch != NoDetectedPitch {
			return result
		}
		return noPitch()
	}

	highEnergy := spectral.NewGoertzel(d.highBandFrequency, sampleRate).Energy(audioData)

	if highEnergy > d.highBandThreshold {
		d.logger.Debug("routing to FFT", logging.Fields{"high_energy": highEnergy})
		if result := d.fft.DetectPitch(audioData, sampleRate); result.Pitch != NoDetectedPitch {
			return result
		}
	} else {
		d.logger.Debug("routing to MPM", logging.Fields{"high_energy": highEnergy})
	}

	if result := d.mpm.DetectPitch(audioData, sampleRate); result.Pitch != NoDetectedPitch {
		return result
	}
	if result := d.yin.DetectPitch(audioData, sampleRate); result.Pitch != NoDetectedPitch {
		return result
	}

	return noPitch()
}

// isLikelyNoise applies the broadband noise gate: both a high coefficient
// of variation and a high normalized zero-crossing rate must hold.
func (d *HybridDetector) isLikelyNoise(audioData []float64, sampleRate int) bool {
	mean := stat.Mean(audioData, nil)
	stdDev := stat.StdDev(audioData, nil)
	cv := math.Abs(stdDev / (mean + 1e-10))

	zcr := spectral.NewZeroCrossingRate(sampleRate).ComputeNormalized(audioData)

	return cv > noiseCVThreshold && zcr > noiseZCRThreshold
}
