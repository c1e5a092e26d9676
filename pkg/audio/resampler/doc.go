// Package resampler converts mono PCM sample sequences between sample rates.
//
// Two methods are provided:
//   - Nearest: picks source sample floor(i * from / to) for output index i.
//     It is fast and deterministic but applies no anti-alias filter, so
//     downsampling folds content above the new Nyquist frequency back into
//     the band. It is the default.
//   - Soxr: band-limited conversion using a pure Go SoX-style resampler.
//
// Example usage:
//
//	out, err := resampler.Resample(samples, 8000, 16000) // len(out) == 2*len(samples)
//	if err != nil {
//	    log.Fatal(err)
//	}
package resampler
