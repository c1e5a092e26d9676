package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/whisperedge/cmd/whisperedge/internal/config"
	"github.com/haivivi/whisperedge/pkg/cli"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "whisperedge",
	Short: "Whisper speech-to-text at the edge",
	Long: `whisperedge - log-mel feature extraction and Whisper transcription.

Audio is 16-bit signed little-endian mono PCM at any sample rate; it is
resampled to 16 kHz, converted to an 80-band log-mel spectrogram padded to
30 s, run through a Whisper ONNX export and decoded with the GPT-2 byte
level vocabulary.

Configuration is read from ~/.whisperedge/config.yaml (or --config) and
WHISPEREDGE_* environment variables.

Examples:
  # Run the HTTP service
  whisperedge serve --addr :8080
  curl --data-binary @speech.raw 'localhost:8080/?sample_rate=8000'

  # Transcribe a file
  whisperedge transcribe speech.wav

  # Dump the model input
  whisperedge mel speech.wav -f msgpack -o speech.mel`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.whisperedge/config.yaml)")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	globalConfig, configLoadErr = loadConfig()
}

func loadConfig() (*config.Config, error) {
	paths, err := cli.NewPaths()
	if err != nil {
		if configPath == "" {
			return nil, err
		}
		// Explicit config files work without a home directory.
		paths = nil
	}
	path, required := configPath, true
	if path == "" {
		path, required = paths.ConfigFile(), false
	}
	return config.Load(path, required, paths, os.LookupEnv)
}

// GetConfig returns the global configuration. Commands that do not need it
// (version) never trigger a load error.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := loadConfig()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// newLogger builds the stderr logger and installs it as slog's default.
func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
