//go:build onnx

package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/haivivi/whisperedge/pkg/audio/melspec"
)

// The runtime environment is process-wide and initialized once. The error
// is kept so later sessions report the same failure.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// Available reports whether ONNX Runtime support is compiled in.
func Available() bool { return true }

func initRuntime(libPath string) error {
	ortInitOnce.Do(func() {
		path, err := ResolveLibPath(libPath)
		if err != nil {
			ortInitErr = err
			return
		}
		ort.SetSharedLibraryPath(path)
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// Session runs one Whisper export. Inference is serialized per session.
type Session struct {
	spec Spec

	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

// NewSession loads an ONNX graph from memory.
func NewSession(cfg Config, modelData []byte) (*Session, error) {
	if err := cfg.Spec.Validate(); err != nil {
		return nil, err
	}
	if len(modelData) == 0 {
		return nil, fmt.Errorf("onnx: empty model data")
	}
	if err := initRuntime(cfg.LibPath); err != nil {
		return nil, fmt.Errorf("onnx: init runtime: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: session options: %w", err)
	}
	defer opts.Destroy()
	if cfg.IntraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("onnx: set intra-op threads: %w", err)
		}
	}

	s, err := ort.NewDynamicAdvancedSessionWithONNXData(
		modelData,
		[]string{cfg.Spec.Input},
		[]string{cfg.Spec.Output},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}
	return &Session{spec: cfg.Spec, session: s}, nil
}

// Infer feeds mel as a [1, bands, frames] tensor and returns the token ids
// of the output tensor, flattened.
func (s *Session) Infer(ctx context.Context, mel *melspec.Spectrogram) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.spec.checkInput(mel); err != nil {
		return nil, err
	}

	input, err := ort.NewTensor(ort.NewShape(mel.Shape()...), mel.Data)
	if err != nil {
		return nil, fmt.Errorf("onnx: create input tensor: %w", err)
	}
	defer input.Destroy()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, fmt.Errorf("onnx: session closed")
	}

	// A nil output is allocated by the runtime with the graph's dtype.
	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("onnx: run %s: %w", s.spec.ID, err)
	}
	defer outputs[0].Destroy()

	switch t := outputs[0].(type) {
	case *ort.Tensor[int64]:
		return append([]int64(nil), t.GetData()...), nil
	case *ort.Tensor[int32]:
		data := t.GetData()
		ids := make([]int64, len(data))
		for i, v := range data {
			ids[i] = int64(v)
		}
		return ids, nil
	}
	return nil, fmt.Errorf("onnx: output %q has unsupported type %T", s.spec.Output, outputs[0])
}

// Name returns the spec ID.
func (s *Session) Name() string {
	return string(s.spec.ID)
}

// Close releases the session. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
