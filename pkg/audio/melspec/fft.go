package melspec

import "math"

// FFT computes the discrete Fourier transform of a real signal and returns
// the N complex bins interleaved as (re, im) pairs, length 2N.
//
// Even lengths are split recursively (radix-2). Odd lengths greater than one
// fall back to the direct O(N²) sum, so any length is accepted; powers of two
// are fastest.
func FFT(signal []float64) []float64 {
	out := make([]float64, 2*len(signal))
	transform(signal, 0, 1, len(signal), out)
	return out
}

// DFT computes the same transform as [FFT] by direct summation.
func DFT(signal []float64) []float64 {
	out := make([]float64, 2*len(signal))
	dft(signal, 0, 1, len(signal), out)
	return out
}

// fftPlan reuses one output arena for transforms of a fixed length.
type fftPlan struct {
	n   int
	out []float64
}

func newFFTPlan(n int) *fftPlan {
	return &fftPlan{n: n, out: make([]float64, 2*n)}
}

// transform runs the FFT of signal into the plan's arena. The returned slice
// is overwritten by the next call.
func (p *fftPlan) transform(signal []float64) []float64 {
	transform(signal, 0, 1, p.n, p.out)
	return p.out
}

// transform writes the n-point transform of in[off], in[off+stride], ...
// into out[:2n].
//
// The even half lands in out[:n] and the odd half in out[n:2n], which is
// exactly where the butterfly reads them, so the combine step runs in place
// and no level of the recursion allocates.
func transform(in []float64, off, stride, n int, out []float64) {
	switch {
	case n == 0:
		return
	case n == 1:
		out[0] = in[off]
		out[1] = 0
		return
	case n%2 == 1:
		dft(in, off, stride, n, out)
		return
	}

	half := n / 2
	transform(in, off, stride*2, half, out[:n])
	transform(in, off+stride, stride*2, half, out[n:2*n])

	for k := 0; k < half; k++ {
		theta := 2 * math.Pi * float64(k) / float64(n)
		wr := math.Cos(theta)
		wi := -math.Sin(theta)

		er, ei := out[2*k], out[2*k+1]
		or, oi := out[n+2*k], out[n+2*k+1]

		tr := wr*or - wi*oi
		ti := wr*oi + wi*or

		out[2*k] = er + tr
		out[2*k+1] = ei + ti
		out[n+2*k] = er - tr
		out[n+2*k+1] = ei - ti
	}
}

// dft is the O(n²) transform over a strided view of in.
func dft(in []float64, off, stride, n int, out []float64) {
	for k := 0; k < n; k++ {
		var re, im float64
		for j := 0; j < n; j++ {
			angle := 2 * math.Pi * float64(k) * float64(j) / float64(n)
			x := in[off+j*stride]
			re += x * math.Cos(angle)
			im -= x * math.Sin(angle)
		}
		out[2*k] = re
		out[2*k+1] = im
	}
}
