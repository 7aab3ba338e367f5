package windowing

import (
	"math"
	"testing"
)

func TestHannSymmetricCoefficients(t *testing.T) {
	h := NewHann(5, true)
	want := []float64{0.0, 0.5, 1.0, 0.5, 0.0}

	got := h.GetCoefficients()
	if len(got) != len(want) {
		t.Fatalf("coefficient count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("coefficient[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestHannPeriodicCoefficients(t *testing.T) {
	// Periodic windows of size n share coefficients with symmetric windows
	// of size n+1, minus the last point.
	periodic := NewHann(8, false).GetCoefficients()
	symmetric := NewHann(9, true).GetCoefficients()

	for i := range periodic {
		if math.Abs(periodic[i]-symmetric[i]) > 1e-12 {
			t.Errorf("coefficient[%d] = %v, want %v", i, periodic[i], symmetric[i])
		}
	}
}

func TestBlackmanHarrisCoefficients(t *testing.T) {
	bh := NewBlackmanHarris(5, true)
	coeffs := bh.GetCoefficients()

	// Endpoints are a0-a1+a2-a3, the window's tiny residual floor.
	edge := 0.35875 - 0.48829 + 0.14128 - 0.01168
	if math.Abs(coeffs[0]-edge) > 1e-12 {
		t.Errorf("coefficient[0] = %v, want %v", coeffs[0], edge)
	}
	if math.Abs(coeffs[4]-edge) > 1e-12 {
		t.Errorf("coefficient[4] = %v, want %v", coeffs[4], edge)
	}

	// The center of a symmetric window sums all four terms.
	if math.Abs(coeffs[2]-1.0) > 1e-12 {
		t.Errorf("coefficient[2] = %v, want 1.0", coeffs[2])
	}
}

func TestWindowBounds(t *testing.T) {
	tests := []struct {
		name   string
		coeffs []float64
	}{
		{"hann symmetric", NewHann(64, true).GetCoefficients()},
		{"hann periodic", NewHann(64, false).GetCoefficients()},
		{"blackman-harris symmetric", NewBlackmanHarris(64, true).GetCoefficients()},
		{"blackman-harris periodic", NewBlackmanHarris(64, false).GetCoefficients()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, c := range tt.coeffs {
				if c < 0 || c > 1.0+1e-12 {
					t.Errorf("coefficient[%d] = %v, outside [0, 1]", i, c)
				}
			}
		})
	}
}

func TestApply(t *testing.T) {
	h := NewHann(4, true)
	signal := []float64{1, 2, 3, 4}

	windowed := h.Apply(signal)
	if windowed == nil {
		t.Fatal("Apply returned nil for matching length")
	}

	coeffs := h.GetCoefficients()
	for i := range signal {
		want := signal[i] * coeffs[i]
		if math.Abs(windowed[i]-want) > 1e-12 {
			t.Errorf("windowed[%d] = %v, want %v", i, windowed[i], want)
		}
	}

	// Source must be untouched.
	if signal[1] != 2 {
		t.Errorf("Apply mutated input: %v", signal)
	}

	if got := h.Apply([]float64{1, 2}); got != nil {
		t.Errorf("Apply with mismatched length = %v, want nil", got)
	}
}

func TestApplyInPlace(t *testing.T) {
	bh := NewBlackmanHarris(4, false)
	signal := []float64{1, 1, 1, 1}

	if err := bh.ApplyInPlace(signal); err != nil {
		t.Fatalf("ApplyInPlace: %v", err)
	}

	coeffs := bh.GetCoefficients()
	for i := range signal {
		if math.Abs(signal[i]-coeffs[i]) > 1e-12 {
			t.Errorf("signal[%d] = %v, want %v", i, signal[i], coeffs[i])
		}
	}

	if err := bh.ApplyInPlace([]float64{1, 2}); err == nil {
		t.Error("ApplyInPlace with mismatched length should error")
	}
}
