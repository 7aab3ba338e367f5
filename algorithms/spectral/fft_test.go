package spectral

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{1000, 1024},
		{1024, 1024},
		{1025, 2048},
	}

	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestPrepareInput(t *testing.T) {
	f := NewFFT()
	samples := []float64{1, 2, 3}

	buf := f.PrepareInput(samples, 8)
	if len(buf) != 16 {
		t.Fatalf("buffer length = %d, want 16", len(buf))
	}

	for i, s := range samples {
		if buf[2*i] != s {
			t.Errorf("buf[%d] = %v, want %v", 2*i, buf[2*i], s)
		}
		if buf[2*i+1] != 0 {
			t.Errorf("buf[%d] = %v, want 0 (imaginary)", 2*i+1, buf[2*i+1])
		}
	}
	for i := 2 * len(samples); i < len(buf); i++ {
		if buf[i] != 0 {
			t.Errorf("buf[%d] = %v, want 0 (padding)", i, buf[i])
		}
	}
}

// TestTransformAgainstReference cross-checks the in-place transform against
// the go-dsp implementation on a deterministic multi-component signal.
func TestTransformAgainstReference(t *testing.T) {
	const n = 512

	samples := make([]float64, n)
	for i := range samples {
		x := float64(i)
		samples[i] = math.Sin(2*math.Pi*x/37.0) +
			0.5*math.Cos(2*math.Pi*x/11.0) +
			0.1*x/float64(n)
	}

	f := NewFFT()
	buf := f.PrepareInput(samples, n)
	f.Transform(buf)

	reference := fft.FFTReal(samples)

	for k := 0; k < n; k++ {
		gotRe, gotIm := buf[2*k], buf[2*k+1]
		wantRe, wantIm := real(reference[k]), imag(reference[k])

		tol := 1e-8 * (1 + cmplx.Abs(reference[k]))
		if math.Abs(gotRe-wantRe) > tol || math.Abs(gotIm-wantIm) > tol {
			t.Fatalf("bin %d = (%v, %v), want (%v, %v)", k, gotRe, gotIm, wantRe, wantIm)
		}
	}
}

func TestMagnitudesSinePeak(t *testing.T) {
	const (
		n          = 1024
		sampleRate = 44100
		bin        = 64 // Exact bin frequency, no leakage
	)

	freq := float64(bin) * float64(sampleRate) / float64(n)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}

	f := NewFFT()
	buf := f.PrepareInput(samples, n)
	f.Transform(buf)
	magnitudes := f.Magnitudes(buf)

	if len(magnitudes) != n/2 {
		t.Fatalf("magnitude count = %d, want %d", len(magnitudes), n/2)
	}

	peakBin := 0
	for i, m := range magnitudes {
		if m > magnitudes[peakBin] {
			peakBin = i
		}
	}
	if peakBin != bin {
		t.Errorf("peak at bin %d, want %d", peakBin, bin)
	}

	// A unit sine at an exact bin concentrates n/2 magnitude there.
	if math.Abs(magnitudes[bin]-float64(n)/2) > 1e-6 {
		t.Errorf("peak magnitude = %v, want %v", magnitudes[bin], float64(n)/2)
	}
}

func TestTransformLinearity(t *testing.T) {
	const n = 256

	a := make([]float64, n)
	b := make([]float64, n)
	sum := make([]float64, n)
	for i := range a {
		a[i] = math.Sin(2 * math.Pi * float64(i) / 17.0)
		b[i] = math.Cos(2 * math.Pi * float64(i) / 29.0)
		sum[i] = a[i] + b[i]
	}

	f := NewFFT()
	bufA := f.PrepareInput(a, n)
	bufB := f.PrepareInput(b, n)
	bufSum := f.PrepareInput(sum, n)
	f.Transform(bufA)
	f.Transform(bufB)
	f.Transform(bufSum)

	for i := range bufSum {
		if math.Abs(bufSum[i]-(bufA[i]+bufB[i])) > 1e-8 {
			t.Fatalf("linearity violated at index %d: %v != %v", i, bufSum[i], bufA[i]+bufB[i])
		}
	}
}
