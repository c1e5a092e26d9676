package pcm

import (
	"errors"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	f := L16Mono8K
	if got := f.BytesInDuration(time.Second); got != 16000 {
		t.Errorf("BytesInDuration(1s) = %d, want 16000", got)
	}
	if got := f.Duration(16000); got != time.Second {
		t.Errorf("Duration(16000) = %v, want 1s", got)
	}
	if got := L16Mono16K.SamplesInDuration(20 * time.Millisecond); got != 320 {
		t.Errorf("SamplesInDuration(20ms) = %d, want 320", got)
	}
	if got := f.String(); got != "audio/L16; rate=8000; channels=1" {
		t.Errorf("String() = %q", got)
	}
	if err := (Format{}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Validate() = %v, want ErrInvalidInput", err)
	}
}

func TestDecodeS16LE(t *testing.T) {
	got, err := DecodeS16LE([]byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x80, 0xff, 0x7f})
	if err != nil {
		t.Fatal(err)
	}
	want := []int16{1, -1, -32768, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDecodeS16LEInvalid(t *testing.T) {
	for _, buf := range [][]byte{nil, {}, {0x01}, {0x01, 0x02, 0x03}} {
		if _, err := DecodeS16LE(buf); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("DecodeS16LE(%v) err = %v, want ErrInvalidInput", buf, err)
		}
	}
}

func TestS16LERoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 12345, -12345, 32767, -32768}
	got, err := DecodeS16LE(EncodeS16LE(samples))
	if err != nil {
		t.Fatal(err)
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("got %v, want %v", got, samples)
		}
	}
}

func TestToFloat32(t *testing.T) {
	got := ToFloat32([]int16{-32768, 0, 16384, 32767})
	if got[0] != -1 || got[1] != 0 || got[2] != 0.5 {
		t.Fatalf("ToFloat32 = %v", got)
	}
	if got[3] >= 1 {
		t.Fatalf("ToFloat32(32767) = %v, want < 1", got[3])
	}
}

func TestFromFloat32Clips(t *testing.T) {
	got := FromFloat32([]float32{-2, -1, 0, 0.5, 2})
	want := []int16{-32768, -32768, 0, 16384, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
