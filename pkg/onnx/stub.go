package onnx

import (
	"context"
	"slices"

	"github.com/haivivi/whisperedge/pkg/audio/melspec"
)

// Stub is a deterministic stand-in for a Whisper session. It checks the mel
// shape like a real session and returns a fixed token sequence. Used when
// the binary is built without the "onnx" tag and in tests.
type Stub struct {
	spec   Spec
	tokens []int64
}

// NewStub returns a Stub that answers every call with tokens.
func NewStub(spec Spec, tokens []int64) *Stub {
	return &Stub{spec: spec, tokens: slices.Clone(tokens)}
}

// Infer returns the configured tokens.
func (s *Stub) Infer(ctx context.Context, mel *melspec.Spectrogram) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.spec.checkInput(mel); err != nil {
		return nil, err
	}
	return slices.Clone(s.tokens), nil
}

// Name returns the spec ID.
func (s *Stub) Name() string {
	return string(s.spec.ID)
}

// Close is a no-op.
func (s *Stub) Close() error {
	return nil
}
