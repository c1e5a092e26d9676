package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/whisperedge/pkg/cli"
	"github.com/haivivi/whisperedge/pkg/onnx"
)

func env(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	paths := &cli.Paths{HomeDir: "/home/u"}
	cfg := Default(paths)
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Audio.DefaultSampleRate != 8000 {
		t.Errorf("DefaultSampleRate = %d, want 8000", cfg.Audio.DefaultSampleRate)
	}
	if cfg.Assets.URL != paths.AssetsDir() {
		t.Errorf("Assets.URL = %q", cfg.Assets.URL)
	}
	if cfg.Cache.Dir != paths.CacheDir() {
		t.Errorf("Cache.Dir = %q", cfg.Cache.Dir)
	}
	if cfg.Assets.Filterbank != "" {
		t.Errorf("Filterbank should default to the computed one, got %q", cfg.Assets.Filterbank)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9000"
log_level: debug
assets:
  url: s3://models/tiny
  s3:
    endpoint: http://localhost:9000
    access_key: ak
    secret_key: sk
  filterbank: mel_filters.json
model:
  backend: stub
  output: tokens
audio:
  default_sample_rate: 16000
  max_bytes: 1024
resample:
  method: soxr
decode:
  skip_special: true
cache:
  enabled: true
  in_memory: true
`)
	cfg, err := Load(path, true, nil, nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ListenAddr != ":9000" || cfg.Level() != slog.LevelDebug {
		t.Errorf("listen/level = %q/%v", cfg.ListenAddr, cfg.Level())
	}
	if cfg.Assets.URL != "s3://models/tiny" || cfg.Assets.S3.AccessKey != "ak" {
		t.Errorf("assets = %+v", cfg.Assets)
	}
	if cfg.Assets.Vocabulary != "vocab.json" {
		t.Errorf("unset fields keep defaults, vocabulary = %q", cfg.Assets.Vocabulary)
	}
	if cfg.Backend() != BackendStub {
		t.Errorf("Backend() = %q", cfg.Backend())
	}
	if cfg.Audio.DefaultSampleRate != 16000 || cfg.Audio.MaxBytes != 1024 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if !cfg.Decode.SkipSpecial || !cfg.Cache.Enabled || !cfg.Cache.InMemory {
		t.Errorf("decode/cache = %+v/%+v", cfg.Decode, cfg.Cache)
	}

	spec := cfg.ModelSpec()
	if spec.Input != "mel" || spec.Output != "tokens" {
		t.Errorf("ModelSpec = %+v", spec)
	}
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := Load(missing, false, nil, nil); err != nil {
		t.Fatalf("optional missing file: %v", err)
	}
	if _, err := Load(missing, true, nil, nil); err == nil {
		t.Fatal("required missing file should fail")
	}
}

func TestLoadUnknownField(t *testing.T) {
	path := writeConfig(t, "listen_adr: \":1\"\n")
	if _, err := Load(path, true, nil, nil); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadEnv(t *testing.T) {
	path := writeConfig(t, "listen_addr: \":9000\"\n")
	cfg, err := Load(path, true, nil, env(map[string]string{
		"WHISPEREDGE_LISTEN_ADDR":         ":7000",
		"WHISPEREDGE_S3_SECRET_KEY":       "secret",
		"WHISPEREDGE_DEFAULT_SAMPLE_RATE": "44100",
		"WHISPEREDGE_MAX_BYTES":           "2048",
		"WHISPEREDGE_CACHE_ENABLED":       "true",
		"WHISPEREDGE_CACHE_IN_MEMORY":     "1",
		"WHISPEREDGE_SKIP_SPECIAL":        "true",
		"WHISPEREDGE_MODEL_BACKEND":       "stub",
	}))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ListenAddr != ":7000" {
		t.Errorf("env should win over file, ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Assets.S3.SecretKey != "secret" {
		t.Errorf("SecretKey = %q", cfg.Assets.S3.SecretKey)
	}
	if cfg.Audio.DefaultSampleRate != 44100 || cfg.Audio.MaxBytes != 2048 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if !cfg.Cache.Enabled || !cfg.Cache.InMemory || !cfg.Decode.SkipSpecial {
		t.Errorf("bools not applied: %+v %+v", cfg.Cache, cfg.Decode)
	}
}

func TestLoadEnvInvalid(t *testing.T) {
	tests := map[string]string{
		"WHISPEREDGE_CACHE_ENABLED":       "maybe",
		"WHISPEREDGE_DEFAULT_SAMPLE_RATE": "fast",
		"WHISPEREDGE_MAX_BYTES":           "-x",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			if _, err := Load("", false, nil, env(map[string]string{k: v})); err == nil {
				t.Fatalf("%s=%s should fail", k, v)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"backend", func(c *Config) { c.Model.Backend = "tflite" }},
		{"resample", func(c *Config) { c.Resample.Method = "cubic" }},
		{"sample rate", func(c *Config) { c.Audio.DefaultSampleRate = 0 }},
		{"sample rate too high", func(c *Config) { c.Audio.DefaultSampleRate = 1_000_000 }},
		{"max bytes", func(c *Config) { c.Audio.MaxBytes = -1 }},
		{"cache dir", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.Dir = ""
		}},
		{"unknown model", func(c *Config) { c.Model.Name = "whisper-large" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(nil)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestModelSpecUnregistered(t *testing.T) {
	cfg := Default(nil)
	cfg.Model.Name = "custom"
	cfg.Model.Input = "x"
	cfg.Model.Output = "y"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	spec := cfg.ModelSpec()
	if err := spec.Validate(); err != nil {
		t.Fatalf("spec invalid: %v", err)
	}
	if spec.ID != onnx.ModelID("custom") || spec.NumFrames != 3000 {
		t.Errorf("spec = %+v", spec)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}
