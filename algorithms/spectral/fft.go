package spectral

import (
	"math"
)

// FFT provides an in-place radix-2 Cooley-Tukey transform over interleaved
// real/imaginary buffers. A buffer of length 2*n holds n complex values as
// [re0, im0, re1, im1, ...]; the transform overwrites it with the
// frequency-domain values in the same layout.
//
// The size n must be a power of two; use NextPowerOfTwo and PrepareInput to
// zero-pad arbitrary-length signals. Behavior is undefined for non
// power-of-two sizes (not checked, matching the usual radix-2 contract).
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// NextPowerOfTwo returns the smallest power of two greater than or equal
// to n, starting the search at 1.
func NextPowerOfTwo(n int) int {
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

// PrepareInput copies samples into a freshly allocated interleaved buffer
// sized for an fftSize-point transform, zero-padding the tail. Samples
// beyond fftSize are dropped.
func (f *FFT) PrepareInput(samples []float64, fftSize int) []float64 {
	buf := make([]float64, 2*fftSize)

	n := min(len(samples), fftSize)
	for i := 0; i < n; i++ {
		buf[2*i] = samples[i]
	}

	return buf
}

// Transform computes the forward FFT of an interleaved buffer in-place.
func (f *FFT) Transform(buf []float64) {
	n := len(buf) / 2
	if n < 2 {
		return
	}

	// Bit-reversal permutation. The running index j mirrors i one bit at a
	// time, using masks shifted down from n/2 (the highest power of two
	// below n).
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit

		if i < j {
			buf[2*i], buf[2*j] = buf[2*j], buf[2*i]
			buf[2*i+1], buf[2*j+1] = buf[2*j+1], buf[2*i+1]
		}
	}

	// Iterative butterfly stages, block length doubling from 2 to n.
	for length := 2; length <= n; length <<= 1 {
		ang := -2.0 * math.Pi / float64(length)
		wRe := math.Cos(ang)
		wIm := math.Sin(ang)

		half := length >> 1
		for start := 0; start < n; start += length {
			curRe, curIm := 1.0, 0.0

			for k := 0; k < half; k++ {
				i := start + k
				j := i + half

				tRe := buf[2*j]*curRe - buf[2*j+1]*curIm
				tIm := buf[2*j]*curIm + buf[2*j+1]*curRe

				buf[2*j] = buf[2*i] - tRe
				buf[2*j+1] = buf[2*i+1] - tIm
				buf[2*i] += tRe
				buf[2*i+1] += tIm

				nextRe := curRe*wRe - curIm*wIm
				curIm = curRe*wIm + curIm*wRe
				curRe = nextRe
			}
		}
	}
}

// Magnitudes extracts the magnitude spectrum |X[k]| = sqrt(re^2 + im^2)
// for the first fftSize/2 bins of a transformed interleaved buffer.
func (f *FFT) Magnitudes(buf []float64) []float64 {
	n := len(buf) / 2
	magnitudes := make([]float64, n/2)

	for k := range magnitudes {
		re := buf[2*k]
		im := buf[2*k+1]
		magnitudes[k] = math.Sqrt(re*re + im*im)
	}

	return magnitudes
}
