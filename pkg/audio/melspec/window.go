package melspec

import "math"

// HannWindow returns the periodic Hann window of length n:
// w[i] = 0.5 * (1 - cos(2πi/n)).
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}
