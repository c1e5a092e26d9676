// Package whisper turns 16-bit PCM into text with a Whisper model.
//
// A Transcriber runs the fixed pipeline
//
//	s16le bytes -> int16 -> float32 -> resample to 16 kHz -> log-mel
//	-> pad/trim to 3000 frames -> Model -> BPE decode -> text
//
// The filterbank and vocabulary are immutable and shared by every call.
// Transcribe is safe for concurrent use when the Model is.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/haivivi/whisperedge/pkg/audio/melspec"
	"github.com/haivivi/whisperedge/pkg/audio/pcm"
	"github.com/haivivi/whisperedge/pkg/audio/resampler"
	"github.com/haivivi/whisperedge/pkg/bpe"
	"github.com/haivivi/whisperedge/pkg/kv"
)

// ModelSampleRate is the rate Whisper models are trained on.
const ModelSampleRate = melspec.DefaultSampleRate

// Accepted input sample rates.
const (
	MinSampleRate = 1000
	MaxSampleRate = 192000
)

// ErrInvalidInput marks requests rejected before inference.
var ErrInvalidInput = errors.New("whisper: invalid input")

// IsInvalidInput reports whether err was caused by bad audio or parameters
// rather than by the model or the cache.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, pcm.ErrInvalidInput) ||
		errors.Is(err, melspec.ErrInvalidInput) ||
		errors.Is(err, resampler.ErrInvalidRate)
}

// Model maps a [1, 80, 3000] log-mel spectrogram to token ids.
type Model interface {
	Infer(ctx context.Context, mel *melspec.Spectrogram) ([]int64, error)
	Close() error
}

// Pipeline stage names passed to Options.OnStage.
const (
	StageDecode   = "decode"
	StageResample = "resample"
	StageMel      = "mel"
	StageInfer    = "infer"
	StageText     = "text"
)

// Options configures a Transcriber.
type Options struct {
	// ModelName identifies the model in cache keys and logs.
	ModelName string

	// Resample selects the resampling method. Empty means nearest.
	Resample resampler.Method

	// Decode controls token decoding.
	Decode bpe.DecodeOptions

	// Cache stores transcripts keyed by audio content. Nil disables caching.
	Cache *Cache

	// OnStage, if set, receives the duration of each pipeline stage.
	OnStage func(stage string, d time.Duration)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Result is the outcome of one transcription.
type Result struct {
	Text       string
	Tokens     []int64
	Samples    int           // input samples
	SampleRate int           // input rate
	Frames     int           // mel frames before padding to ModelFrames
	Audio      time.Duration // input duration
	Cached     bool
}

// Transcriber runs the pipeline.
type Transcriber struct {
	model     Model
	extractor *melspec.Extractor
	vocab     *bpe.Vocabulary
	opts      Options
	logger    *slog.Logger
}

// New creates a Transcriber. The filterbank must be 80 bands wide enough for
// a 400-point FFT.
func New(model Model, fb *melspec.Filterbank, vocab *bpe.Vocabulary, opts Options) (*Transcriber, error) {
	if model == nil {
		return nil, fmt.Errorf("whisper: nil model")
	}
	if vocab == nil {
		return nil, fmt.Errorf("whisper: nil vocabulary")
	}
	ex, err := melspec.NewExtractor(melspec.DefaultConfig(), fb)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	if opts.Resample == "" {
		opts.Resample = resampler.MethodNearest
	}
	if _, err := resampler.ParseMethod(string(opts.Resample)); err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	if opts.ModelName == "" {
		opts.ModelName = "whisper"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{
		model:     model,
		extractor: ex,
		vocab:     vocab,
		opts:      opts,
		logger:    logger,
	}, nil
}

// Extractor returns the log-mel extractor used by the pipeline.
func (t *Transcriber) Extractor() *melspec.Extractor {
	return t.extractor
}

// Vocabulary returns the decoding vocabulary.
func (t *Transcriber) Vocabulary() *bpe.Vocabulary {
	return t.vocab
}

// Close closes the model.
func (t *Transcriber) Close() error {
	return t.model.Close()
}

// Transcribe decodes s16le mono PCM recorded at sampleRate and returns the
// transcript. Bad audio yields an error for which IsInvalidInput is true.
func (t *Transcriber) Transcribe(ctx context.Context, data []byte, sampleRate int) (*Result, error) {
	if err := CheckSampleRate(sampleRate); err != nil {
		return nil, err
	}

	var key kv.Key
	if t.opts.Cache != nil {
		key = CacheKey(t.opts.ModelName, t.cacheVariant(), data, sampleRate)
		rec, err := t.opts.Cache.Get(ctx, key)
		if err == nil {
			t.logger.Debug("whisper: cache hit", "key", keyString(key))
			return rec.result(), nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			t.logger.Warn("whisper: cache read failed", "error", err)
		}
	}

	start := time.Now()
	samples, err := pcm.DecodeS16LE(data)
	if err != nil {
		return nil, err
	}
	t.stage(StageDecode, start)

	res, err := t.TranscribeSamples(ctx, samples, sampleRate)
	if err != nil {
		return nil, err
	}

	if t.opts.Cache != nil {
		if err := t.opts.Cache.Put(ctx, key, newRecord(res)); err != nil {
			t.logger.Warn("whisper: cache write failed", "error", err)
		}
	}
	return res, nil
}

// TranscribeSamples runs the pipeline on already decoded samples. It does
// not consult the cache.
func (t *Transcriber) TranscribeSamples(ctx context.Context, samples []int16, sampleRate int) (*Result, error) {
	mel, frames, err := t.spectrogram(samples, sampleRate)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tokens, err := t.model.Infer(ctx, mel)
	if err != nil {
		return nil, fmt.Errorf("whisper: infer: %w", err)
	}
	t.stage(StageInfer, start)

	start = time.Now()
	text := t.vocab.Decode(tokens, t.opts.Decode)
	t.stage(StageText, start)

	return &Result{
		Text:       text,
		Tokens:     tokens,
		Samples:    len(samples),
		SampleRate: sampleRate,
		Frames:     frames,
		Audio:      pcm.Format{SampleRate: sampleRate}.Duration(int64(2 * len(samples))),
	}, nil
}

// Spectrogram returns the model input for samples: the log-mel spectrogram
// padded or trimmed to melspec.ModelFrames.
func (t *Transcriber) Spectrogram(samples []int16, sampleRate int) (*melspec.Spectrogram, error) {
	mel, _, err := t.spectrogram(samples, sampleRate)
	return mel, err
}

// spectrogram also returns the frame count before fitting.
func (t *Transcriber) spectrogram(samples []int16, sampleRate int) (*melspec.Spectrogram, int, error) {
	if err := CheckSampleRate(sampleRate); err != nil {
		return nil, 0, err
	}
	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("%w: no samples", ErrInvalidInput)
	}
	frames := t.extractor.NumFrames(resampler.OutputLen(len(samples), sampleRate, ModelSampleRate))
	samples = samples[:min(len(samples), t.inputLimit(sampleRate))]

	start := time.Now()
	resampled, err := t.opts.Resample.Apply(pcm.ToFloat32(samples), sampleRate, ModelSampleRate)
	if err != nil {
		return nil, 0, err
	}
	t.stage(StageResample, start)

	start = time.Now()
	mel, err := t.extractor.Extract(resampled)
	if err != nil {
		return nil, 0, err
	}
	fitted, err := melspec.FitFrames(mel, melspec.ModelFrames)
	if err != nil {
		return nil, 0, err
	}
	t.stage(StageMel, start)
	return fitted, frames, nil
}

// inputLimit is the number of source samples at sampleRate that can reach
// the extractor's sample budget plus one frame. Later samples are read as
// zero and their frames are trimmed, so they are dropped before
// resampling. The extra 100 ms covers the soxr filter delay.
func (t *Transcriber) inputLimit(sampleRate int) int {
	cfg := t.extractor.Config()
	need := int64(cfg.ChunkSeconds*cfg.SampleRate + cfg.FFTSize)
	from, to := int64(sampleRate), int64(ModelSampleRate)
	return int((need*from+to-1)/to + from/10)
}

// cacheVariant names the options that change a transcript for the same
// model and audio.
func (t *Transcriber) cacheVariant() string {
	return fmt.Sprintf("resample=%s,skip_special=%t", t.opts.Resample, t.opts.Decode.SkipSpecial)
}

// CheckSampleRate reports ErrInvalidInput for rates outside
// [MinSampleRate, MaxSampleRate].
func CheckSampleRate(rate int) error {
	if rate < MinSampleRate || rate > MaxSampleRate {
		return fmt.Errorf("%w: sample rate %d outside [%d, %d]", ErrInvalidInput, rate, MinSampleRate, MaxSampleRate)
	}
	return nil
}

func (t *Transcriber) stage(name string, start time.Time) {
	if t.opts.OnStage != nil {
		t.opts.OnStage(name, time.Since(start))
	}
}
