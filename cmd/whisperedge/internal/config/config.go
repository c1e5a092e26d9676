// Package config loads the whisperedge configuration.
//
// Configuration comes from a YAML file (default ~/.whisperedge/config.yaml)
// overlaid by WHISPEREDGE_* environment variables:
//
//	listen_addr: ":8080"
//	log_level: info
//	assets:
//	  url: s3://models/whisper-tiny.en
//	  s3:
//	    endpoint: https://<account>.r2.cloudflarestorage.com
//	    access_key: ...
//	    secret_key: ...
//	  vocabulary: vocab.json
//	  model: model.onnx
//	model:
//	  backend: onnx
//	audio:
//	  default_sample_rate: 8000
//	cache:
//	  enabled: true
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/whisperedge/pkg/audio/melspec"
	"github.com/haivivi/whisperedge/pkg/audio/resampler"
	"github.com/haivivi/whisperedge/pkg/cli"
	"github.com/haivivi/whisperedge/pkg/onnx"
	"github.com/haivivi/whisperedge/pkg/whisper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WHISPEREDGE_"

// Model backends.
const (
	BackendONNX = "onnx"
	BackendStub = "stub"
)

// Config is the full CLI and server configuration.
type Config struct {
	ListenAddr string         `yaml:"listen_addr"`
	LogLevel   string         `yaml:"log_level"`
	Assets     AssetsConfig   `yaml:"assets"`
	Model      ModelConfig    `yaml:"model"`
	Audio      AudioConfig    `yaml:"audio"`
	Resample   ResampleConfig `yaml:"resample"`
	Decode     DecodeConfig   `yaml:"decode"`
	Cache      CacheConfig    `yaml:"cache"`
}

// AssetsConfig locates the filterbank, vocabulary and model.
type AssetsConfig struct {
	// URL is a directory, file:// or s3://bucket/prefix location.
	URL string   `yaml:"url"`
	S3  S3Config `yaml:"s3"`

	// Filterbank is empty to use the computed Whisper filterbank.
	Filterbank string `yaml:"filterbank"`
	Vocabulary string `yaml:"vocabulary"`
	Model      string `yaml:"model"`
}

// S3Config holds credentials for S3-compatible asset stores.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// ModelConfig selects the inference backend and its tensors.
type ModelConfig struct {
	// Backend is onnx or stub. Empty picks onnx when it is compiled in.
	Backend string `yaml:"backend"`
	// Name is a registered onnx spec id.
	Name   string `yaml:"name"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	ORTLib string `yaml:"ort_lib"`
}

// AudioConfig bounds request audio.
type AudioConfig struct {
	DefaultSampleRate int   `yaml:"default_sample_rate"`
	MaxBytes          int64 `yaml:"max_bytes"`
}

// ResampleConfig selects the resampler.
type ResampleConfig struct {
	Method string `yaml:"method"`
}

// DecodeConfig controls token decoding.
type DecodeConfig struct {
	SkipSpecial bool `yaml:"skip_special"`
}

// CacheConfig configures the transcript cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	InMemory bool   `yaml:"in_memory"`
}

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Default returns the configuration used when nothing is set. Directory
// defaults are resolved under paths; a nil paths leaves them empty.
func Default(paths *cli.Paths) *Config {
	cfg := &Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
		Assets: AssetsConfig{
			Vocabulary: whisper.DefaultVocabularyAsset,
			Model:      whisper.DefaultModelAsset,
		},
		Model: ModelConfig{
			Name: string(onnx.ModelWhisperTinyEn),
		},
		Audio: AudioConfig{
			DefaultSampleRate: 8000,
		},
		Resample: ResampleConfig{
			Method: string(resampler.MethodNearest),
		},
	}
	if paths != nil {
		cfg.Assets.URL = paths.AssetsDir()
		cfg.Cache.Dir = paths.CacheDir()
	}
	return cfg
}

// Load reads the file at path over the defaults, applies environment
// overrides from lookup and validates the result. A missing file is an
// error only when required is set.
func Load(path string, required bool, paths *cli.Paths, lookup LookupFunc) (*Config, error) {
	cfg := Default(paths)

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if lookup != nil {
		if err := cfg.applyEnv(lookup); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	strs := map[string]*string{
		"LISTEN_ADDR":       &c.ListenAddr,
		"LOG_LEVEL":         &c.LogLevel,
		"ASSETS_URL":        &c.Assets.URL,
		"S3_ENDPOINT":       &c.Assets.S3.Endpoint,
		"S3_REGION":         &c.Assets.S3.Region,
		"S3_ACCESS_KEY":     &c.Assets.S3.AccessKey,
		"S3_SECRET_KEY":     &c.Assets.S3.SecretKey,
		"ASSETS_FILTERBANK": &c.Assets.Filterbank,
		"ASSETS_VOCABULARY": &c.Assets.Vocabulary,
		"ASSETS_MODEL":      &c.Assets.Model,
		"MODEL_BACKEND":     &c.Model.Backend,
		"MODEL_NAME":        &c.Model.Name,
		"MODEL_INPUT":       &c.Model.Input,
		"MODEL_OUTPUT":      &c.Model.Output,
		"ORT_LIB":           &c.Model.ORTLib,
		"RESAMPLE_METHOD":   &c.Resample.Method,
		"CACHE_DIR":         &c.Cache.Dir,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"SKIP_SPECIAL":    &c.Decode.SkipSpecial,
		"CACHE_ENABLED":   &c.Cache.Enabled,
		"CACHE_IN_MEMORY": &c.Cache.InMemory,
	}
	for name, dst := range bools {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
	}

	if v, ok := lookup(EnvPrefix + "DEFAULT_SAMPLE_RATE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sDEFAULT_SAMPLE_RATE: %w", EnvPrefix, err)
		}
		c.Audio.DefaultSampleRate = n
	}
	if v, ok := lookup(EnvPrefix + "MAX_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %sMAX_BYTES: %w", EnvPrefix, err)
		}
		c.Audio.MaxBytes = n
	}
	return nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Model.Backend {
	case "", BackendONNX, BackendStub:
	default:
		return fmt.Errorf("config: model.backend %q (want onnx or stub)", c.Model.Backend)
	}
	if _, ok := onnx.LookupSpec(onnx.ModelID(c.Model.Name)); !ok && (c.Model.Input == "" || c.Model.Output == "") {
		return fmt.Errorf("config: unknown model %q needs model.input and model.output", c.Model.Name)
	}
	if _, err := resampler.ParseMethod(c.Resample.Method); err != nil {
		return fmt.Errorf("config: resample.method: %w", err)
	}
	if err := whisper.CheckSampleRate(c.Audio.DefaultSampleRate); err != nil {
		return fmt.Errorf("config: audio.default_sample_rate: %w", err)
	}
	if c.Audio.MaxBytes < 0 {
		return fmt.Errorf("config: audio.max_bytes must not be negative")
	}
	if c.Cache.Enabled && !c.Cache.InMemory && c.Cache.Dir == "" {
		return fmt.Errorf("config: cache.dir is required unless cache.in_memory is set")
	}
	return nil
}

// Backend returns the effective model backend.
func (c *Config) Backend() string {
	if c.Model.Backend != "" {
		return c.Model.Backend
	}
	if onnx.Available() {
		return BackendONNX
	}
	return BackendStub
}

// ModelSpec resolves the tensor layout of the configured model.
// model.input and model.output override the registered names.
func (c *Config) ModelSpec() onnx.Spec {
	spec, ok := onnx.LookupSpec(onnx.ModelID(c.Model.Name))
	if !ok {
		spec = onnx.Spec{
			ID:        onnx.ModelID(c.Model.Name),
			NumBands:  melspec.DefaultNumBands,
			NumFrames: melspec.ModelFrames,
		}
	}
	if c.Model.Input != "" {
		spec.Input = c.Model.Input
	}
	if c.Model.Output != "" {
		spec.Output = c.Model.Output
	}
	return spec
}

// Level returns the parsed log level.
func (c *Config) Level() slog.Level {
	l, _ := ParseLevel(c.LogLevel)
	return l
}

// ParseLevel parses debug, info, warn or error. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
}
