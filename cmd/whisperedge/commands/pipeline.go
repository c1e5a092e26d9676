package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/whisperedge/cmd/whisperedge/internal/config"
	"github.com/haivivi/whisperedge/pkg/audio/melspec"
	"github.com/haivivi/whisperedge/pkg/audio/pcm"
	"github.com/haivivi/whisperedge/pkg/audio/resampler"
	"github.com/haivivi/whisperedge/pkg/bpe"
	"github.com/haivivi/whisperedge/pkg/cli"
	"github.com/haivivi/whisperedge/pkg/kv"
	"github.com/haivivi/whisperedge/pkg/metrics"
	"github.com/haivivi/whisperedge/pkg/onnx"
	"github.com/haivivi/whisperedge/pkg/storage"
	"github.com/haivivi/whisperedge/pkg/whisper"
)

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

// pipeline is a Transcriber with the resources it owns.
type pipeline struct {
	tr    *whisper.Transcriber
	cache kv.Store
}

func (p *pipeline) Close() error {
	err := p.tr.Close()
	if p.cache != nil {
		err = errors.Join(err, p.cache.Close())
	}
	return err
}

func openAssets(cfg *config.Config) (storage.Store, error) {
	return storage.Open(cfg.Assets.URL, storage.S3Options{
		Endpoint:  cfg.Assets.S3.Endpoint,
		Region:    cfg.Assets.S3.Region,
		AccessKey: cfg.Assets.S3.AccessKey,
		SecretKey: cfg.Assets.S3.SecretKey,
	})
}

func openCacheStore(cfg *config.Config, logger *slog.Logger) (kv.Store, error) {
	return kv.NewBadger(kv.BadgerOptions{
		Dir:      cfg.Cache.Dir,
		InMemory: cfg.Cache.InMemory,
		Logger:   logger,
	})
}

// cacheModelName keys cached transcripts by export and backend so stub
// output never answers for a real model.
func cacheModelName(cfg *config.Config) string {
	name := cfg.Model.Name
	if cfg.Backend() == config.BackendStub {
		name += "+stub"
	}
	return name
}

// openPipeline loads assets and builds the configured Transcriber. A nil m
// skips stage metrics.
func openPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*pipeline, error) {
	store, err := openAssets(cfg)
	if err != nil {
		return nil, err
	}
	backend := cfg.Backend()
	names := whisper.AssetNames{
		Filterbank: cfg.Assets.Filterbank,
		Vocabulary: cfg.Assets.Vocabulary,
	}
	if backend == config.BackendONNX {
		names.Model = cfg.Assets.Model
	}
	logger.Debug("whisperedge: loading assets", "store", store.String(), "backend", backend)
	assets, err := whisper.LoadAssets(ctx, store, names)
	if err != nil {
		return nil, err
	}

	model, err := newModel(cfg, assets.Model, logger)
	if err != nil {
		return nil, err
	}

	p := &pipeline{}
	opts := whisper.Options{
		ModelName: cacheModelName(cfg),
		Decode:    bpe.DecodeOptions{SkipSpecial: cfg.Decode.SkipSpecial},
		Logger:    logger,
	}
	if opts.Resample, err = resampler.ParseMethod(cfg.Resample.Method); err != nil {
		model.Close()
		return nil, err
	}
	if m != nil {
		opts.OnStage = m.ObserveStage
	}
	if cfg.Cache.Enabled {
		if p.cache, err = openCacheStore(cfg, logger); err != nil {
			model.Close()
			return nil, err
		}
		opts.Cache = whisper.NewCache(p.cache, 0)
	}

	if p.tr, err = whisper.New(model, assets.Filterbank, assets.Vocabulary, opts); err != nil {
		model.Close()
		if p.cache != nil {
			p.cache.Close()
		}
		return nil, err
	}
	return p, nil
}

func newModel(cfg *config.Config, data []byte, logger *slog.Logger) (whisper.Model, error) {
	spec := cfg.ModelSpec()
	if cfg.Backend() == config.BackendONNX {
		s, err := onnx.NewSession(onnx.Config{Spec: spec, LibPath: cfg.Model.ORTLib}, data)
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", spec.ID, err)
		}
		return s, nil
	}
	logger.Warn("whisperedge: using stub model, transcripts will be empty", "model", spec.ID)
	return onnx.NewStub(spec, nil), nil
}

// loadFilterbank reads the configured filterbank asset, or computes the
// Whisper one when none is configured.
func loadFilterbank(ctx context.Context, cfg *config.Config) (*melspec.Filterbank, error) {
	if cfg.Assets.Filterbank == "" {
		return melspec.WhisperFilterbank(), nil
	}
	store, err := openAssets(cfg)
	if err != nil {
		return nil, err
	}
	data, err := storage.ReadAll(ctx, store, cfg.Assets.Filterbank)
	if err != nil {
		return nil, err
	}
	return melspec.ParseFilterbank(data)
}

// readAudio reads a WAV or raw s16le file ("-" for stdin). rate overrides
// the WAV header; raw input without a rate uses defaultRate.
func readAudio(path string, rate, defaultRate int) ([]int16, int, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, 0, err
	}

	if pcm.IsWAV(data) {
		samples, f, err := pcm.DecodeWAV(data)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
		if rate == 0 {
			rate = f.SampleRate
		}
		return samples, rate, whisper.CheckSampleRate(rate)
	}

	samples, err := pcm.DecodeS16LE(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	if rate == 0 {
		rate = defaultRate
	}
	return samples, rate, whisper.CheckSampleRate(rate)
}

// output writes v to file, or to the command's stdout when file is empty.
func output(cmd *cobra.Command, v any, format cli.OutputFormat, file string) error {
	opts := cli.OutputOptions{Format: format, File: file}
	if file == "" {
		opts.Writer = cmd.OutOrStdout()
	}
	return cli.Output(v, opts)
}
