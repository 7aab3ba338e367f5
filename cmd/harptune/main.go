// Command harptune analyzes a WAV recording and prints the detected pitch
// (and optionally chords) per analysis window.
//
// Usage:
//
//	harptune recording.wav
//	harptune -window 4096 -chords recording.wav
//	harptune -min 200 -max 2000 -v recording.wav
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tonereach/pitchcore/algorithms/tonal"
	"github.com/tonereach/pitchcore/logging"
)

const (
	defaultWindowSize = 4096

	// Peak sample values per bit depth, for normalization to [-1, 1].
	maxInt16 = 32768.0
	maxInt24 = 8388608.0
	maxInt32 = 2147483648.0
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "harptune: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	windowSize := flag.Int("window", defaultWindowSize, "Analysis window size in samples")
	minFreq := flag.Float64("min", tonal.DefaultMinFrequency, "Minimum detectable frequency in Hz")
	maxFreq := flag.Float64("max", tonal.DefaultMaxFrequency, "Maximum detectable frequency in Hz")
	chords := flag.Bool("chords", false, "Detect chords instead of single pitches")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
		return fmt.Errorf("expected exactly one input file")
	}
	if *windowSize < 2 {
		return fmt.Errorf("window size must be at least 2, got %d", *windowSize)
	}

	if *verbose {
		logger := logging.NewDefaultLogger()
		logger.SetLevel(logging.DebugLevel)
		logging.SetGlobalLogger(logger)
	}

	samples, sampleRate, err := loadWAV(flag.Arg(0))
	if err != nil {
		return err
	}

	cfg := tonal.Config{MinFrequency: *minFreq, MaxFrequency: *maxFreq}

	if *chords {
		return analyzeChords(samples, sampleRate, *windowSize, cfg)
	}
	return analyzePitch(samples, sampleRate, *windowSize, cfg)
}

// loadWAV decodes a WAV file into a mono float64 signal normalized to
// [-1, 1]. Multichannel input is averaged down to mono.
func loadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid WAV file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	samples, err := monoFloat(buf, int(decoder.BitDepth))
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}

	return samples, buf.Format.SampleRate, nil
}

// monoFloat converts an integer PCM buffer to mono float64 samples in
// [-1, 1], averaging channels.
func monoFloat(buf *audio.IntBuffer, bitDepth int) ([]float64, error) {
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("no audio channels")
	}

	var scale float64
	switch bitDepth {
	case 16:
		scale = maxInt16
	case 24:
		scale = maxInt24
	case 32:
		scale = maxInt32
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		samples[i] = sum / float64(channels) / scale
	}

	return samples, nil
}

func analyzePitch(samples []float64, sampleRate, windowSize int, cfg tonal.Config) error {
	detector := tonal.NewHybridDetector(cfg)

	for start := 0; start+windowSize <= len(samples); start += windowSize {
		result := detector.DetectPitch(samples[start:start+windowSize], sampleRate)

		t := float64(start) / float64(sampleRate)
		if result.Pitch == tonal.NoDetectedPitch {
			fmt.Printf("%8.3fs  --\n", t)
		} else {
			fmt.Printf("%8.3fs  %8.2f Hz  (confidence %.2f)\n", t, result.Pitch, result.Confidence)
		}
	}

	return nil
}

func analyzeChords(samples []float64, sampleRate, windowSize int, cfg tonal.Config) error {
	detector := tonal.NewChordDetector(cfg)

	for start := 0; start+windowSize <= len(samples); start += windowSize {
		result := detector.DetectChord(samples[start:start+windowSize], sampleRate)

		t := float64(start) / float64(sampleRate)
		if !result.HasPitches() {
			fmt.Printf("%8.3fs  --\n", t)
			continue
		}

		fmt.Printf("%8.3fs ", t)
		for _, pitch := range result.Pitches {
			fmt.Printf(" %8.2f Hz", pitch)
		}
		fmt.Printf("  (confidence %.2f)\n", result.Confidence)
	}

	return nil
}
