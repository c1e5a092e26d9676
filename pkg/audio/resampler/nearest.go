package resampler

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRate is returned when a sample rate is not positive.
var ErrInvalidRate = errors.New("resampler: invalid sample rate")

// Sample is a PCM sample type the resampler can copy.
type Sample interface {
	~int16 | ~float32 | ~float64
}

// OutputLen returns round(n * to / from), the length Resample produces.
func OutputLen(n, from, to int) int {
	if from == to {
		return n
	}
	return int(math.Round(float64(n) * float64(to) / float64(from)))
}

// Resample converts samples from one rate to another by nearest-neighbour
// selection. When from == to the input slice itself is returned.
func Resample[S Sample](samples []S, from, to int) ([]S, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, from, to)
	}
	if from == to {
		return samples, nil
	}
	n := OutputLen(len(samples), from, to)
	out := make([]S, n)
	if len(samples) == 0 {
		return out, nil
	}
	last := len(samples) - 1
	for i := range out {
		// Integer arithmetic keeps floor(i*from/to) exact.
		src := int(int64(i) * int64(from) / int64(to))
		if src > last {
			src = last
		}
		out[i] = samples[src]
	}
	return out, nil
}
