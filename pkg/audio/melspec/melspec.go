// Package melspec computes Whisper-style log-mel spectrograms from PCM audio.
//
// The output is a band-major [NumBands, NumFrames] float32 matrix suitable
// for direct input to a Whisper encoder after [FitFrames] pads or trims it
// to [ModelFrames].
//
// Default parameters match Whisper:
//
//	SampleRate:    16000
//	FFTSize:         400 (25 ms, Hann window)
//	HopSize:         160 (10 ms)
//	NumBands:         80
//	ChunkSeconds:     30
//
// Processing per frame: Hann window, FFT, power spectrum folded onto the
// first half, mel projection, log10 with a 1e-10 floor. After all frames the
// values are clamped to within 8 decades of the global maximum and mapped
// through (v + 4) / 4.
package melspec

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Whisper front-end defaults.
const (
	DefaultSampleRate   = 16000
	DefaultFFTSize      = 400
	DefaultHopSize      = 160
	DefaultNumBands     = 80
	DefaultChunkSeconds = 30

	// ModelFrames is the fixed frame count of a 30 second Whisper input.
	ModelFrames = DefaultChunkSeconds * DefaultSampleRate / DefaultHopSize

	logFloor     = 1e-10
	dynamicRange = 8.0
)

// ErrInvalidInput is returned for sample sequences or frame targets the
// extractor cannot process.
var ErrInvalidInput = errors.New("melspec: invalid input")

// Config controls log-mel extraction.
type Config struct {
	SampleRate   int // sample rate of the input in Hz (default 16000)
	FFTSize      int // frame length in samples (default 400)
	HopSize      int // stride between frames in samples (default 160)
	NumBands     int // number of mel bands (default 80)
	ChunkSeconds int // samples past this many seconds are treated as silence (default 30)

	// ReducedResolution projects only the first 1 + FFTSize/4 power bins
	// onto the filterbank instead of 1 + FFTSize/2.
	ReducedResolution bool
}

// DefaultConfig returns the Whisper front-end configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:   DefaultSampleRate,
		FFTSize:      DefaultFFTSize,
		HopSize:      DefaultHopSize,
		NumBands:     DefaultNumBands,
		ChunkSeconds: DefaultChunkSeconds,
	}
}

// projectedBins is the number of power bins read per band.
func (c Config) projectedBins() int {
	if c.ReducedResolution {
		return 1 + c.FFTSize/4
	}
	return 1 + c.FFTSize/2
}

// maxSamples is the logical sample budget; later samples read as zero.
func (c Config) maxSamples() int {
	return c.ChunkSeconds * c.SampleRate
}

// Spectrogram is a band-major matrix: all frames of band 0, then band 1, ...
// len(Data) == NumBands*NumFrames always holds.
type Spectrogram struct {
	NumBands  int
	NumFrames int
	Data      []float32
}

// At returns the value of one band at one frame.
func (s *Spectrogram) At(band, frame int) float32 {
	return s.Data[band*s.NumFrames+frame]
}

// Row returns all frames of one band. The slice aliases s.Data.
func (s *Spectrogram) Row(band int) []float32 {
	return s.Data[band*s.NumFrames : (band+1)*s.NumFrames]
}

// Shape returns the model tensor shape [1, NumBands, NumFrames].
func (s *Spectrogram) Shape() []int64 {
	return []int64{1, int64(s.NumBands), int64(s.NumFrames)}
}

// Extractor computes log-mel spectrograms. It is safe for concurrent use.
type Extractor struct {
	cfg    Config
	fb     *Filterbank
	window []float64
	pool   sync.Pool // *frameScratch
}

type frameScratch struct {
	frame []float64
	plan  *fftPlan
}

// NewExtractor creates an Extractor. The filterbank must have cfg.NumBands
// rows and at least as many bins as the configured resolution projects.
func NewExtractor(cfg Config, fb *Filterbank) (*Extractor, error) {
	if cfg.FFTSize <= 0 || cfg.HopSize <= 0 || cfg.NumBands <= 0 || cfg.SampleRate <= 0 || cfg.ChunkSeconds <= 0 {
		return nil, fmt.Errorf("melspec: invalid config %+v", cfg)
	}
	if fb == nil {
		return nil, fmt.Errorf("melspec: nil filterbank")
	}
	if fb.NumBands != cfg.NumBands {
		return nil, fmt.Errorf("melspec: filterbank has %d bands, config wants %d", fb.NumBands, cfg.NumBands)
	}
	if need := cfg.projectedBins(); fb.NumBins < need {
		return nil, fmt.Errorf("melspec: filterbank has %d bins, need at least %d", fb.NumBins, need)
	}
	e := &Extractor{
		cfg:    cfg,
		fb:     fb,
		window: HannWindow(cfg.FFTSize),
	}
	e.pool.New = func() any {
		return &frameScratch{
			frame: make([]float64, cfg.FFTSize),
			plan:  newFFTPlan(cfg.FFTSize),
		}
	}
	return e, nil
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// NumFrames returns the number of frames Extract produces for n samples.
func (e *Extractor) NumFrames(n int) int {
	if n < e.cfg.FFTSize {
		return 0
	}
	return (n-e.cfg.FFTSize)/e.cfg.HopSize + 1
}

// Extract computes the normalized log-mel spectrogram of samples, which
// should be in [-1, 1]. An empty input is rejected with ErrInvalidInput;
// an input shorter than one frame yields a zero-frame spectrogram.
func (e *Extractor) Extract(samples []float32) (*Spectrogram, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidInput)
	}

	cfg := e.cfg
	numFrames := e.NumFrames(len(samples))
	mel := &Spectrogram{
		NumBands:  cfg.NumBands,
		NumFrames: numFrames,
		Data:      make([]float32, cfg.NumBands*numFrames),
	}
	if numFrames == 0 {
		return mel, nil
	}

	s := e.pool.Get().(*frameScratch)
	defer e.pool.Put(s)

	n := cfg.FFTSize
	budget := cfg.maxSamples()
	nBins := cfg.projectedBins()
	logMel := make([]float64, cfg.NumBands*numFrames)
	power := make([]float64, n)

	for t := 0; t < numFrames; t++ {
		offset := t * cfg.HopSize

		for j := 0; j < n; j++ {
			if offset+j < budget {
				s.frame[j] = e.window[j] * float64(samples[offset+j])
			} else {
				s.frame[j] = 0
			}
		}

		spec := s.plan.transform(s.frame)
		for j := 0; j < n; j++ {
			re, im := spec[2*j], spec[2*j+1]
			power[j] = re*re + im*im
		}
		// Real input: fold the mirrored half onto the first.
		for j := 1; j < n/2; j++ {
			power[j] += power[n-j]
		}

		for b := 0; b < cfg.NumBands; b++ {
			row := e.fb.Row(b)
			sum := 0.0
			for k := 0; k < nBins; k++ {
				sum += power[k] * float64(row[k])
			}
			if sum < logFloor {
				sum = logFloor
			}
			logMel[b*numFrames+t] = math.Log10(sum)
		}
	}

	peak := math.Inf(-1)
	for _, v := range logMel {
		if v > peak {
			peak = v
		}
	}
	floor := peak - dynamicRange
	for i, v := range logMel {
		if v < floor {
			v = floor
		}
		mel.Data[i] = float32((v + 4) / 4)
	}
	return mel, nil
}
