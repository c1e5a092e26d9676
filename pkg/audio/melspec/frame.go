package melspec

import "fmt"

// FitFrames returns a copy of s with exactly target frames per band. Longer
// rows are truncated; shorter rows are padded on the right with zeros.
// Applying it twice with the same target gives the same result as once.
func FitFrames(s *Spectrogram, target int) (*Spectrogram, error) {
	if target < 0 {
		return nil, fmt.Errorf("%w: negative frame target %d", ErrInvalidInput, target)
	}
	out := &Spectrogram{
		NumBands:  s.NumBands,
		NumFrames: target,
		Data:      make([]float32, s.NumBands*target),
	}
	keep := min(s.NumFrames, target)
	for b := 0; b < s.NumBands; b++ {
		copy(out.Data[b*target:b*target+keep], s.Data[b*s.NumFrames:b*s.NumFrames+keep])
	}
	return out, nil
}
