package whisper

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/whisperedge/pkg/kv"
)

// ErrCacheMiss is returned by Cache.Get when no transcript is stored.
var ErrCacheMiss = errors.New("whisper: cache miss")

// cachePrefix is the first key segment of every transcript.
const cachePrefix = "transcripts"

// Record is a cached transcript, stored msgpack-encoded.
type Record struct {
	Text       string    `msgpack:"text"`
	Tokens     []int64   `msgpack:"tokens"`
	Samples    int       `msgpack:"samples"`
	SampleRate int       `msgpack:"sample_rate"`
	Frames     int       `msgpack:"frames"`
	CreatedAt  time.Time `msgpack:"created_at"`
}

func newRecord(r *Result) *Record {
	return &Record{
		Text:       r.Text,
		Tokens:     r.Tokens,
		Samples:    r.Samples,
		SampleRate: r.SampleRate,
		Frames:     r.Frames,
		CreatedAt:  time.Now().UTC(),
	}
}

func (r *Record) result() *Result {
	return &Result{
		Text:       r.Text,
		Tokens:     r.Tokens,
		Samples:    r.Samples,
		SampleRate: r.SampleRate,
		Frames:     r.Frames,
		Audio:      time.Duration(r.Samples) * time.Second / time.Duration(max(r.SampleRate, 1)),
		Cached:     true,
	}
}

// CacheEntry is one record returned by Cache.List.
type CacheEntry struct {
	Model  string
	Digest string
	Record *Record
}

// Cache stores transcripts in a kv.Store under
// transcripts:<model>:<sha256 of options, rate and audio>.
type Cache struct {
	store kv.Store
	ttl   time.Duration
}

// NewCache creates a Cache. A positive ttl expires entries.
func NewCache(store kv.Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// CacheKey derives the key for audio at sampleRate transcribed by model.
// variant names the pipeline options that affect the text; it is hashed
// into the digest together with the rate and audio.
func CacheKey(model, variant string, audio []byte, sampleRate int) kv.Key {
	h := sha256.New()
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(variant)))
	h.Write(n[:])
	h.Write([]byte(variant))
	binary.LittleEndian.PutUint64(n[:], uint64(sampleRate))
	h.Write(n[:])
	h.Write(audio)
	return kv.Key{cachePrefix, model, hex.EncodeToString(h.Sum(nil))}
}

func keyString(k kv.Key) string {
	return strings.Join(k, ":")
}

// Get returns the record under key or ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key kv.Key) (*Record, error) {
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("whisper: cache get %s: %w", keyString(key), err)
	}
	var rec Record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("whisper: cache decode %s: %w", keyString(key), err)
	}
	return &rec, nil
}

// Put stores rec under key.
func (c *Cache) Put(ctx context.Context, key kv.Key, rec *Record) error {
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("whisper: cache encode: %w", err)
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		return fmt.Errorf("whisper: cache put %s: %w", keyString(key), err)
	}
	return nil
}

// List iterates over cached transcripts. An empty model lists all models.
func (c *Cache) List(ctx context.Context, model string) iter.Seq2[CacheEntry, error] {
	prefix := kv.Key{cachePrefix}
	if model != "" {
		prefix = append(prefix, model)
	}
	return func(yield func(CacheEntry, error) bool) {
		for e, err := range c.store.List(ctx, prefix) {
			if err != nil {
				if !yield(CacheEntry{}, err) {
					return
				}
				continue
			}
			if len(e.Key) != 3 {
				continue
			}
			var rec Record
			if err := msgpack.Unmarshal(e.Value, &rec); err != nil {
				err = fmt.Errorf("whisper: cache decode %s: %w", e.Key, err)
				if !yield(CacheEntry{}, err) {
					return
				}
				continue
			}
			if !yield(CacheEntry{Model: e.Key[1], Digest: e.Key[2], Record: &rec}, nil) {
				return
			}
		}
	}
}

// Purge removes cached transcripts of model, or of every model when model
// is empty. It returns the number removed, or -1 if the store cannot count.
func (c *Cache) Purge(ctx context.Context, model string) (int, error) {
	prefix := kv.Key{cachePrefix}
	if model != "" {
		prefix = append(prefix, model)
	}
	n, err := c.store.DeletePrefix(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("whisper: cache purge: %w", err)
	}
	return n, nil
}
