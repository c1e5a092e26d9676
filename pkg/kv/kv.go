// Package kv is the key-value layer behind the transcript cache. Keys are
// hierarchical paths (e.g. ["transcripts", "tiny.en", "<sha256>"]) encoded
// with a separator byte (default ':').
//
// Badger is the persistent implementation; Memory is used for tests and for
// single-process deployments that do not need the cache to survive restarts.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("kv: not found")

// Key is a hierarchical path. Segments must not contain the separator.
type Key []string

// String joins the segments with ':' for display.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Entry is a key-value pair returned by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores value under key. A positive ttl expires the entry after
	// that duration; zero keeps it until deleted.
	Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error

	// List iterates over entries under prefix in lexicographic key order.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// DeletePrefix removes every entry under prefix and returns how many
	// were removed when the backend can count them, or -1.
	DeletePrefix(ctx context.Context, prefix Key) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// DefaultSeparator joins key segments when none is configured.
const DefaultSeparator byte = ':'

// Options configures key encoding.
type Options struct {
	// Separator joins key segments. Zero means DefaultSeparator.
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

// encode joins k with the separator.
func (o *Options) encode(k Key) []byte {
	n := 0
	for _, seg := range k {
		n += len(seg) + 1
	}
	buf := make([]byte, 0, n)
	for i, seg := range k {
		if i > 0 {
			buf = append(buf, o.sep())
		}
		buf = append(buf, seg...)
	}
	return buf
}

// prefix encodes k followed by the separator so that "a:b" does not match
// "a:bc". An empty prefix matches everything.
func (o *Options) prefix(k Key) []byte {
	if len(k) == 0 {
		return nil
	}
	return append(o.encode(k), o.sep())
}

func (o *Options) decode(b []byte) Key {
	return Key(strings.Split(string(b), string([]byte{o.sep()})))
}
