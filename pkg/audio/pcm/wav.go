package pcm

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavFormatChunk is the body of a 16-byte PCM "fmt " chunk.
type wavFormatChunk struct {
	AudioFormat   uint16 // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// EncodeWAV wraps samples in a 44-byte canonical WAV header.
func EncodeWAV(samples []int16, f Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	dataSize := uint32(len(samples) * 2)
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVEfmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, wavFormatChunk{
		AudioFormat:   1,
		NumChannels:   uint16(f.Channels()),
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.BytesRate()),
		BlockAlign:    uint16(f.Channels() * f.Depth() / 8),
		BitsPerSample: uint16(f.Depth()),
	})
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(EncodeS16LE(samples))
	return buf.Bytes(), nil
}

// DecodeWAV extracts 16-bit mono PCM samples and their format from a WAV
// file. Chunks other than "fmt " and "data" are skipped.
func DecodeWAV(data []byte) ([]int16, Format, error) {
	if !IsWAV(data) {
		return nil, Format{}, fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalidInput)
	}

	var (
		fmtChunk *wavFormatChunk
		pos      = 12
	)
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			// Streams written before the length is known carry a bogus size.
			if id == "data" {
				size = len(data) - body
			} else {
				return nil, Format{}, fmt.Errorf("%w: chunk %q overruns file", ErrInvalidInput, id)
			}
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, Format{}, fmt.Errorf("%w: fmt chunk too short (%d bytes)", ErrInvalidInput, size)
			}
			var fc wavFormatChunk
			if err := binary.Read(bytes.NewReader(data[body:body+16]), binary.LittleEndian, &fc); err != nil {
				return nil, Format{}, fmt.Errorf("pcm: read fmt chunk: %w", err)
			}
			if fc.AudioFormat != 1 {
				return nil, Format{}, fmt.Errorf("%w: unsupported audio format %d (only PCM)", ErrInvalidInput, fc.AudioFormat)
			}
			if fc.BitsPerSample != 16 {
				return nil, Format{}, fmt.Errorf("%w: unsupported bit depth %d (only 16-bit)", ErrInvalidInput, fc.BitsPerSample)
			}
			if fc.NumChannels != 1 {
				return nil, Format{}, fmt.Errorf("%w: unsupported channel count %d (only mono)", ErrInvalidInput, fc.NumChannels)
			}
			fmtChunk = &fc
		case "data":
			if fmtChunk == nil {
				return nil, Format{}, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalidInput)
			}
			samples, err := DecodeS16LE(data[body : body+size])
			if err != nil {
				return nil, Format{}, err
			}
			return samples, Format{SampleRate: int(fmtChunk.SampleRate)}, nil
		}

		// Chunks are word aligned.
		pos = body + size + size%2
	}
	return nil, Format{}, fmt.Errorf("%w: no data chunk", ErrInvalidInput)
}
