// Package onnx runs Whisper ONNX exports through ONNX Runtime.
//
// The runtime binding (github.com/yalue/onnxruntime_go) loads the native
// library at run time and is compiled in only with the "onnx" build tag.
// Without the tag [NewSession] returns [ErrUnavailable] and callers fall
// back to [Stub].
//
// Known exports are described by a [Spec] registry. A Spec names the input
// and output tensors and the mel shape the graph expects:
//
//	spec, _ := onnx.LookupSpec(onnx.ModelWhisperTinyEn)
//	s, err := onnx.NewSession(onnx.Config{Spec: spec}, modelData)
//	tokens, err := s.Infer(ctx, mel)
package onnx

import (
	"fmt"
	"sort"
	"sync"

	"github.com/haivivi/whisperedge/pkg/audio/melspec"
)

// ModelID identifies a Whisper export.
type ModelID string

const (
	// ModelWhisperTinyEn is the English-only tiny model exported with its
	// greedy decoder folded into the graph.
	// Input "mel": [1, 80, 3000] float32
	// Output "23939": [1, T] int32 or int64 token ids
	ModelWhisperTinyEn ModelID = "whisper-tiny.en"
)

// Spec describes the tensors of an export.
type Spec struct {
	ID        ModelID
	Input     string // input tensor name
	Output    string // token id output name
	NumBands  int
	NumFrames int
}

// Validate checks that s names both tensors and a positive mel shape.
func (s Spec) Validate() error {
	if s.Input == "" || s.Output == "" {
		return fmt.Errorf("onnx: spec %q: input and output names are required", s.ID)
	}
	if s.NumBands <= 0 || s.NumFrames <= 0 {
		return fmt.Errorf("onnx: spec %q: invalid mel shape %dx%d", s.ID, s.NumBands, s.NumFrames)
	}
	return nil
}

// checkInput verifies that mel matches the shape the graph expects.
func (s Spec) checkInput(mel *melspec.Spectrogram) error {
	if mel == nil {
		return fmt.Errorf("onnx: nil spectrogram")
	}
	if mel.NumBands != s.NumBands || mel.NumFrames != s.NumFrames {
		return fmt.Errorf("onnx: %s wants %dx%d mel, got %dx%d",
			s.ID, s.NumBands, s.NumFrames, mel.NumBands, mel.NumFrames)
	}
	return nil
}

var (
	registryMu sync.RWMutex
	registry   = make(map[ModelID]Spec)
)

func init() {
	RegisterSpec(Spec{
		ID:        ModelWhisperTinyEn,
		Input:     "mel",
		Output:    "23939",
		NumBands:  melspec.DefaultNumBands,
		NumFrames: melspec.ModelFrames,
	})
}

// RegisterSpec adds or replaces a spec.
func RegisterSpec(s Spec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.ID] = s
}

// LookupSpec returns the spec registered under id.
func LookupSpec(id ModelID) (Spec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[id]
	return s, ok
}

// ListSpecs returns the registered model IDs in sorted order.
func ListSpecs() []ModelID {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]ModelID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
