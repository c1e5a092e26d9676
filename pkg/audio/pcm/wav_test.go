package pcm

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestWAVRoundTrip(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768}
	data, err := EncodeWAV(samples, L16Mono8K)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 44+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(data), 44+len(samples)*2)
	}
	if !IsWAV(data) {
		t.Fatal("IsWAV = false")
	}

	got, f, err := DecodeWAV(data)
	if err != nil {
		t.Fatal(err)
	}
	if f != L16Mono8K {
		t.Errorf("format = %v, want %v", f, L16Mono8K)
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("got %v, want %v", got, samples)
		}
	}
}

func TestDecodeWAVSkipsUnknownChunks(t *testing.T) {
	data, err := EncodeWAV([]int16{7, 8, 9}, L16Mono16K)
	if err != nil {
		t.Fatal(err)
	}
	// Insert an odd-sized LIST chunk (padded to 4 bytes) before "data".
	list := []byte("LIST\x03\x00\x00\x00abc\x00")
	withList := append(append(append([]byte{}, data[:36]...), list...), data[36:]...)
	binary.LittleEndian.PutUint32(withList[4:8], uint32(len(withList)-8))

	got, f, err := DecodeWAV(withList)
	if err != nil {
		t.Fatal(err)
	}
	if f.SampleRate != 16000 || len(got) != 3 || got[2] != 9 {
		t.Fatalf("got %v at %v", got, f)
	}
}

func TestDecodeWAVRejects(t *testing.T) {
	stereo, _ := EncodeWAV([]int16{1, 2}, L16Mono8K)
	binary.LittleEndian.PutUint16(stereo[22:24], 2)

	eightBit, _ := EncodeWAV([]int16{1, 2}, L16Mono8K)
	binary.LittleEndian.PutUint16(eightBit[34:36], 8)

	for name, data := range map[string][]byte{
		"not riff": []byte("hello world, not a wav file"),
		"stereo":   stereo,
		"8-bit":    eightBit,
		"no data":  []byte("RIFF\x04\x00\x00\x00WAVE"),
	} {
		if _, _, err := DecodeWAV(data); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", name, err)
		}
	}
}
