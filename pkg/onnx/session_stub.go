//go:build !onnx

package onnx

import (
	"context"
	"errors"

	"github.com/haivivi/whisperedge/pkg/audio/melspec"
)

// ErrUnavailable indicates the binary was built without ONNX Runtime.
var ErrUnavailable = errors.New("onnx: runtime not available (build with -tags onnx)")

// Available reports whether ONNX Runtime support is compiled in.
func Available() bool { return false }

// Session is a placeholder; NewSession never returns one without the tag.
type Session struct{}

// NewSession returns ErrUnavailable when built without the "onnx" tag.
func NewSession(_ Config, _ []byte) (*Session, error) {
	return nil, ErrUnavailable
}

func (*Session) Infer(context.Context, *melspec.Spectrogram) ([]int64, error) {
	return nil, ErrUnavailable
}

func (*Session) Name() string { return "" }

func (*Session) Close() error { return nil }
