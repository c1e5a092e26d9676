// Package storage holds the pipeline's static assets: the mel filterbank,
// the BPE vocabulary and the model weights. Assets live either on the local
// disk or in an S3-compatible bucket (AWS, R2, MinIO) and are addressed by
// forward-slash names relative to the store root.
package storage

import (
	"context"
	"fmt"
	"io"
)

// Store reads and writes named assets.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Open opens the named asset for reading. The caller must close the
	// returned reader. A missing asset yields an error wrapping
	// os.ErrNotExist.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Put stores data under name, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// Exists reports whether the named asset exists.
	Exists(ctx context.Context, name string) (bool, error)

	// String describes the store location for logs, e.g. "s3://bucket/prefix".
	String() string
}

// ReadAll reads a whole asset into memory.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	rc, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s from %s: %w", name, s, err)
	}
	return data, nil
}
