package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haivivi/whisperedge/pkg/metrics"
	"github.com/haivivi/whisperedge/pkg/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP transcription service",
	Long: `Run the HTTP transcription service.

POST raw s16le mono PCM to / or /transcribe with an optional sample_rate
query parameter (default audio.default_sample_rate). The response is the
plain-text transcript, or JSON with Accept: application/json.

  GET /healthz   liveness and uptime
  GET /metrics   Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default listen_addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	p, err := openPipeline(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer p.Close()

	addr := cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := server.New(server.Config{
		Addr:              addr,
		DefaultSampleRate: cfg.Audio.DefaultSampleRate,
		MaxBodyBytes:      cfg.Audio.MaxBytes,
	}, p.tr, m, logger)

	logger.Info("whisperedge: serving", "addr", addr, "backend", cfg.Backend(), "cache", cfg.Cache.Enabled)
	return srv.ListenAndServe(ctx)
}
