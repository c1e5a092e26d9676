// Package pcm provides types and utilities for 16-bit signed little-endian
// mono PCM audio (audio/L16).
//
// Key pieces:
//   - Format: sample rate of an L16 mono stream, with byte/sample/duration math
//   - DecodeS16LE / EncodeS16LE: raw bytes to and from int16 samples
//   - ToFloat32: int16 samples normalized to [-1, 1)
//   - DecodeWAV / EncodeWAV: RIFF/WAVE container for 16-bit mono PCM
//
// Example usage:
//
//	format := pcm.L16Mono8K
//	samples, err := pcm.DecodeS16LE(body)
//	if err != nil {
//	    return err // wraps pcm.ErrInvalidInput
//	}
//	fmt.Println(format.Duration(int64(len(body))))
package pcm
