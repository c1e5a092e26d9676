package pcm

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for audio buffers that cannot hold whole
// 16-bit samples.
var ErrInvalidInput = errors.New("pcm: invalid input")

// DecodeS16LE converts little-endian 16-bit PCM bytes to samples. Empty and
// odd-length buffers are rejected: a dangling byte would shift every
// following sample.
func DecodeS16LE(buf []byte) ([]int16, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrInvalidInput)
	}
	if len(buf)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d, s16le needs 2 bytes per sample", ErrInvalidInput, len(buf))
	}
	samples := make([]int16, len(buf)/2)
	for i := range samples {
		samples[i] = int16(uint16(buf[2*i]) | uint16(buf[2*i+1])<<8)
	}
	return samples, nil
}

// EncodeS16LE converts samples to little-endian 16-bit PCM bytes.
func EncodeS16LE(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[2*i] = byte(s)
		buf[2*i+1] = byte(s >> 8)
	}
	return buf
}

// ToFloat32 normalizes samples by 32768 so the full int16 range maps to
// [-1.0, ~0.99997].
func ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// FromFloat32 converts normalized samples back to int16, clipping values
// outside [-1, 1].
func FromFloat32(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := float64(s) * 32768.0
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}
