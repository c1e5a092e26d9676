package melspec

import (
	"encoding/json"
	"fmt"
	"math"
)

// Filterbank is a flattened [NumBands][NumBins] matrix of mel filter
// weights. It is immutable once built and safe to share.
type Filterbank struct {
	NumBands int
	NumBins  int
	Weights  []float32
}

// Row returns the weights of one mel band. The slice aliases the
// filterbank and must not be modified.
func (f *Filterbank) Row(band int) []float32 {
	return f.Weights[band*f.NumBins : (band+1)*f.NumBins]
}

// ParseFilterbank decodes a JSON matrix of filter weights, one array per mel
// band (the layout of Whisper's mel_filters.json).
func ParseFilterbank(data []byte) (*Filterbank, error) {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("melspec: decode filterbank: %w", err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("melspec: empty filterbank")
	}
	fb := &Filterbank{
		NumBands: len(rows),
		NumBins:  len(rows[0]),
		Weights:  make([]float32, 0, len(rows)*len(rows[0])),
	}
	for i, row := range rows {
		if len(row) != fb.NumBins {
			return nil, fmt.Errorf("melspec: filterbank row %d has %d bins, want %d", i, len(row), fb.NumBins)
		}
		for _, w := range row {
			fb.Weights = append(fb.Weights, float32(w))
		}
	}
	return fb, nil
}

// MarshalJSON encodes the filterbank in the same nested layout that
// [ParseFilterbank] reads.
func (f *Filterbank) MarshalJSON() ([]byte, error) {
	rows := make([][]float32, f.NumBands)
	for b := range rows {
		rows[b] = f.Row(b)
	}
	return json.Marshal(rows)
}

// WhisperFilterbank returns the 80-band filterbank for 16 kHz audio and a
// 400-point FFT that Whisper models are trained with.
func WhisperFilterbank() *Filterbank {
	return NewFilterbank(DefaultNumBands, DefaultFFTSize, DefaultSampleRate)
}

// NewFilterbank builds Slaney-style triangular mel filters spanning 0 Hz to
// Nyquist, area-normalized so each band integrates to the same energy.
// The result has 1 + fftSize/2 bins per band and matches librosa's default
// mel filters.
func NewFilterbank(numBands, fftSize, sampleRate int) *Filterbank {
	numBins := 1 + fftSize/2
	fb := &Filterbank{
		NumBands: numBands,
		NumBins:  numBins,
		Weights:  make([]float32, numBands*numBins),
	}

	fftFreqs := make([]float64, numBins)
	nyquist := float64(sampleRate) / 2
	for k := range fftFreqs {
		fftFreqs[k] = nyquist * float64(k) / float64(numBins-1)
	}

	// numBands + 2 points equally spaced on the mel scale.
	lowMel := hzToMel(0)
	highMel := hzToMel(nyquist)
	melHz := make([]float64, numBands+2)
	for i := range melHz {
		m := lowMel + (highMel-lowMel)*float64(i)/float64(numBands+1)
		melHz[i] = melToHz(m)
	}

	for b := 0; b < numBands; b++ {
		left, center, right := melHz[b], melHz[b+1], melHz[b+2]
		enorm := 2 / (right - left)
		row := fb.Weights[b*numBins : (b+1)*numBins]
		for k, f := range fftFreqs {
			lower := (f - left) / (center - left)
			upper := (right - f) / (right - center)
			w := math.Max(0, math.Min(lower, upper))
			row[k] = float32(w * enorm)
		}
	}
	return fb
}

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSP       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSP
	melLogStepLn = 0.06875177742094912 // ln(6.4) / 27
)

func hzToMel(hz float64) float64 {
	if hz < melMinLogHz {
		return hz / melFSP
	}
	return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStepLn
}

func melToHz(mel float64) float64 {
	if mel < melMinLogMel {
		return mel * melFSP
	}
	return melMinLogHz * math.Exp(melLogStepLn*(mel-melMinLogMel))
}
