package melspec

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func sine(n int, freq, rate, amp float64) []float32 {
	pcm := make([]float32, n)
	for i := range pcm {
		pcm[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}
	return pcm
}

func newWhisperExtractor(t testing.TB) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultConfig(), WhisperFilterbank())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestModelFrames(t *testing.T) {
	if ModelFrames != 3000 {
		t.Fatalf("ModelFrames = %d, want 3000", ModelFrames)
	}
}

func TestExtractSilence(t *testing.T) {
	e := newWhisperExtractor(t)
	mel, err := e.Extract(make([]float32, DefaultFFTSize))
	if err != nil {
		t.Fatal(err)
	}
	if mel.NumBands != 80 || mel.NumFrames != 1 {
		t.Fatalf("shape = %dx%d, want 80x1", mel.NumBands, mel.NumFrames)
	}
	want := float32((math.Log10(1e-10) + 4.0) / 4.0)
	for i, v := range mel.Data {
		if v != want {
			t.Fatalf("Data[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestExtractSine(t *testing.T) {
	e := newWhisperExtractor(t)
	mel, err := e.Extract(sine(16000, 440, 16000, 1))
	if err != nil {
		t.Fatal(err)
	}
	if mel.NumBands != 80 {
		t.Fatalf("NumBands = %d, want 80", mel.NumBands)
	}
	if want := (16000-400)/160 + 1; mel.NumFrames != want {
		t.Fatalf("NumFrames = %d, want %d", mel.NumFrames, want)
	}
	if len(mel.Data) != mel.NumBands*mel.NumFrames {
		t.Fatalf("len(Data) = %d, want %d", len(mel.Data), mel.NumBands*mel.NumFrames)
	}

	peak := float32(math.Inf(-1))
	for _, v := range mel.Data {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite value %v", v)
		}
		peak = max(peak, v)
	}
	// Clamping keeps every value within 8 decades (2.0 after scaling) of the peak.
	for i, v := range mel.Data {
		if v < peak-2.0001 || v > peak {
			t.Fatalf("Data[%d] = %v outside [%v, %v]", i, v, peak-2, peak)
		}
	}

	// The 440 Hz band must dominate the top band in every frame.
	for f := 0; f < mel.NumFrames; f++ {
		if mel.At(79, f) >= peak {
			t.Fatalf("frame %d: top band reaches peak", f)
		}
	}
	t.Logf("peak normalized value %.4f", peak)
}

func TestExtractEmpty(t *testing.T) {
	e := newWhisperExtractor(t)
	_, err := e.Extract(nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestExtractShorterThanFrame(t *testing.T) {
	e := newWhisperExtractor(t)
	for _, n := range []int{1, 241, 399} {
		mel, err := e.Extract(make([]float32, n))
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if mel.NumFrames != 0 || len(mel.Data) != 0 || mel.NumBands != 80 {
			t.Fatalf("n=%d: got %dx%d (%d values), want 80x0", n, mel.NumBands, mel.NumFrames, len(mel.Data))
		}
	}
}

func TestExtractSampleBudget(t *testing.T) {
	cfg := Config{SampleRate: 100, FFTSize: 16, HopSize: 8, NumBands: 4, ChunkSeconds: 1}
	e, err := NewExtractor(cfg, NewFilterbank(4, 16, 100))
	if err != nil {
		t.Fatal(err)
	}
	mel, err := e.Extract(sine(200, 10, 100, 0.8))
	if err != nil {
		t.Fatal(err)
	}
	if mel.NumFrames != 24 {
		t.Fatalf("NumFrames = %d, want 24", mel.NumFrames)
	}

	lowest := mel.Data[0]
	for _, v := range mel.Data {
		lowest = min(lowest, v)
	}
	// Frames starting at or after sample 100 read only silence.
	for f := 13; f < mel.NumFrames; f++ {
		for b := 0; b < mel.NumBands; b++ {
			if v := mel.At(b, f); v != lowest {
				t.Fatalf("band %d frame %d = %v, want floor %v", b, f, v, lowest)
			}
		}
	}
	if mel.At(0, 0) == lowest && mel.At(1, 0) == lowest && mel.At(2, 0) == lowest && mel.At(3, 0) == lowest {
		t.Fatal("first frame is entirely at the floor")
	}
}

func TestNewExtractorValidation(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := NewExtractor(cfg, nil); err == nil {
		t.Error("expected error for nil filterbank")
	}
	if _, err := NewExtractor(cfg, NewFilterbank(40, 400, 16000)); err == nil {
		t.Error("expected error for band mismatch")
	}
	narrow := &Filterbank{NumBands: 80, NumBins: 101, Weights: make([]float32, 80*101)}
	if _, err := NewExtractor(cfg, narrow); err == nil {
		t.Error("expected error for filterbank narrower than 1+FFTSize/2")
	}
	bad := cfg
	bad.HopSize = 0
	if _, err := NewExtractor(bad, WhisperFilterbank()); err == nil {
		t.Error("expected error for zero hop size")
	}
}

func TestExtractReducedResolution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReducedResolution = true

	narrow := &Filterbank{NumBands: 80, NumBins: 101, Weights: make([]float32, 80*101)}
	copy(narrow.Weights, WhisperFilterbank().Weights)
	e, err := NewExtractor(cfg, narrow)
	if err != nil {
		t.Fatal(err)
	}
	mel, err := e.Extract(sine(4000, 440, 16000, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	if mel.NumFrames != (4000-400)/160+1 {
		t.Fatalf("NumFrames = %d", mel.NumFrames)
	}

	// The full-resolution filterbank is also accepted; only 101 bins are read.
	if _, err := NewExtractor(cfg, WhisperFilterbank()); err != nil {
		t.Fatal(err)
	}
}

func TestExtractConcurrent(t *testing.T) {
	e := newWhisperExtractor(t)
	pcm := sine(8000, 1000, 16000, 0.3)
	ref, err := e.Extract(pcm)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mel, err := e.Extract(pcm)
			if err != nil {
				errs <- err
				return
			}
			for i := range mel.Data {
				if mel.Data[i] != ref.Data[i] {
					errs <- errors.New("concurrent result differs")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestFitFramesPad(t *testing.T) {
	s := &Spectrogram{NumBands: 2, NumFrames: 3, Data: []float32{1, 2, 3, 4, 5, 6}}
	got, err := FitFrames(s, 5)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{1, 2, 3, 0, 0, 4, 5, 6, 0, 0}
	if got.NumBands != 2 || got.NumFrames != 5 {
		t.Fatalf("shape = %dx%d, want 2x5", got.NumBands, got.NumFrames)
	}
	for i := range want {
		if got.Data[i] != want[i] {
			t.Fatalf("Data = %v, want %v", got.Data, want)
		}
	}
}

func TestFitFramesTrim(t *testing.T) {
	s := &Spectrogram{NumBands: 2, NumFrames: 3, Data: []float32{1, 2, 3, 4, 5, 6}}
	got, err := FitFrames(s, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{1, 2, 4, 5}
	for i := range want {
		if got.Data[i] != want[i] {
			t.Fatalf("Data = %v, want %v", got.Data, want)
		}
	}
	// The source is untouched.
	if s.NumFrames != 3 || s.Data[2] != 3 {
		t.Fatalf("source modified: %+v", s)
	}
}

func TestFitFramesIdempotent(t *testing.T) {
	e := newWhisperExtractor(t)
	mel, err := e.Extract(sine(16000, 440, 16000, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	once, err := FitFrames(mel, ModelFrames)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := FitFrames(once, ModelFrames)
	if err != nil {
		t.Fatal(err)
	}
	if once.NumFrames != ModelFrames || twice.NumFrames != ModelFrames {
		t.Fatalf("frames = %d, %d", once.NumFrames, twice.NumFrames)
	}
	for i := range once.Data {
		if once.Data[i] != twice.Data[i] {
			t.Fatalf("Data[%d]: %v != %v", i, once.Data[i], twice.Data[i])
		}
	}
}

func TestFitFramesEmpty(t *testing.T) {
	got, err := FitFrames(&Spectrogram{NumBands: 80}, ModelFrames)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Data) != 80*ModelFrames {
		t.Fatalf("len = %d", len(got.Data))
	}
	if _, err := FitFrames(got, -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSpectrogramShape(t *testing.T) {
	s := &Spectrogram{NumBands: 80, NumFrames: 3000}
	shape := s.Shape()
	if len(shape) != 3 || shape[0] != 1 || shape[1] != 80 || shape[2] != 3000 {
		t.Fatalf("Shape() = %v", shape)
	}
}

func BenchmarkExtract(b *testing.B) {
	e := newWhisperExtractor(b)
	pcm := sine(48000, 440, 16000, 0.5)
	b.ResetTimer()
	b.ReportAllocs()
	for range b.N {
		_, _ = e.Extract(pcm)
	}
}
