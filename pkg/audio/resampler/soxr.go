package resampler

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// HighQuality converts normalized mono samples between rates with a
// band-limited (anti-aliased) filter. The filter tail is flushed and the
// result is trimmed or zero-padded to OutputLen(len(samples), from, to).
func HighQuality(samples []float32, from, to int) ([]float32, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, from, to)
	}
	if from == to {
		return samples, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: create soxr: %w", err)
	}

	input := make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s)
	}
	output, err := r.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resampler: soxr process: %w", err)
	}
	tail, err := r.Flush()
	if err != nil {
		return nil, fmt.Errorf("resampler: soxr flush: %w", err)
	}
	output = append(output, tail...)

	out := make([]float32, OutputLen(len(samples), from, to))
	for i := range min(len(out), len(output)) {
		out[i] = float32(output[i])
	}
	return out, nil
}
