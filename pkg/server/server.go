// Package server exposes a Transcriber over HTTP.
//
// Routes:
//
//	POST /?sample_rate=8000     raw s16le mono body, plain-text transcript
//	GET  /                      empty 200 (liveness probe of the edge runtime)
//	POST /transcribe            same as POST /
//	GET  /healthz               JSON status
//	GET  /metrics               Prometheus exposition
//
// Responses are plain text unless the client sends Accept: application/json.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/haivivi/whisperedge/pkg/metrics"
	"github.com/haivivi/whisperedge/pkg/whisper"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// Transcriber is the pipeline the server drives. *whisper.Transcriber
// satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (*whisper.Result, error)
}

// Config configures a Server.
type Config struct {
	Addr string

	// DefaultSampleRate applies when the request has no sample_rate
	// parameter. Zero means 8000.
	DefaultSampleRate int

	// MaxBodyBytes bounds request bodies. Zero means 30 s of 48 kHz audio.
	MaxBodyBytes int64

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.DefaultSampleRate == 0 {
		c.DefaultSampleRate = 8000
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 30 * 48000 * 2
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60 * time.Second
	}
}

// Server is the HTTP front end.
type Server struct {
	cfg     Config
	tr      Transcriber
	metrics *metrics.Metrics
	logger  *slog.Logger
	started time.Time
	handler http.Handler
}

// New creates a Server. A nil metrics disables /metrics and request
// accounting; a nil logger uses slog.Default().
func New(cfg Config, tr Transcriber, m *metrics.Metrics, logger *slog.Logger) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		tr:      tr,
		metrics: m,
		logger:  logger,
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.instrument("/", s.handleRoot))
	mux.HandleFunc("/transcribe", s.instrument("/transcribe", s.handleTranscribe))
	mux.HandleFunc("/healthz", s.instrument("/healthz", s.handleHealth))
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}
	s.handler = s.withRequestID(s.withRecover(mux))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	hs := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  2 * time.Minute,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(l) }()
	s.logger.Info("server: listening", "addr", l.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on cfg.Addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, l)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost:
		s.transcribe(w, r)
	case http.MethodGet, http.MethodHead:
		w.WriteHeader(http.StatusOK)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.transcribe(w, r)
}

// transcribeResponse is the JSON form of a transcript.
type transcribeResponse struct {
	Text       string  `json:"text"`
	Tokens     []int64 `json:"tokens"`
	Frames     int     `json:"frames"`
	SampleRate int     `json:"sample_rate"`
	Seconds    float64 `json:"seconds"`
	Cached     bool    `json:"cached"`
	RequestID  string  `json:"request_id"`
}

func (s *Server) transcribe(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := w.Header().Get(RequestIDHeader)
	log := s.logger.With("request_id", reqID)

	rate, err := s.sampleRate(r)
	if err != nil {
		s.record(metrics.ResultInvalid, 0)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.record(metrics.ResultInvalid, 0)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.tr.Transcribe(r.Context(), body, rate)
	if err != nil {
		if whisper.IsInvalidInput(err) {
			s.record(metrics.ResultInvalid, 0)
			log.Info("server: rejected audio", "sample_rate", rate, "bytes", len(body), "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.record(metrics.ResultError, 0)
		log.Error("server: transcription failed", "sample_rate", rate, "bytes", len(body), "error", err)
		http.Error(w, "transcription failed", http.StatusInternalServerError)
		return
	}

	result := metrics.ResultOK
	if res.Cached {
		result = metrics.ResultCached
	}
	s.record(result, res.Audio)
	log.Info("server: transcribed",
		"sample_rate", rate,
		"bytes", len(body),
		"frames", res.Frames,
		"cached", res.Cached,
		"duration", time.Since(start),
	)

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(transcribeResponse{
			Text:       res.Text,
			Tokens:     res.Tokens,
			Frames:     res.Frames,
			SampleRate: res.SampleRate,
			Seconds:    res.Audio.Seconds(),
			Cached:     res.Cached,
			RequestID:  reqID,
		}); err != nil {
			log.Debug("server: write response failed", "error", err)
		}
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, res.Text); err != nil {
		log.Debug("server: write response failed", "error", err)
	}
}

// sampleRate reads the sample_rate query parameter.
func (s *Server) sampleRate(r *http.Request) (int, error) {
	v := r.URL.Query().Get("sample_rate")
	if v == "" {
		return s.cfg.DefaultSampleRate, nil
	}
	rate, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid sample_rate %q", v)
	}
	if err := whisper.CheckSampleRate(rate); err != nil {
		return 0, err
	}
	return rate, nil
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		r.URL.Query().Get("format") == "json"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}); err != nil {
		s.logger.Debug("server: write health failed", "error", err)
	}
}

func (s *Server) record(result string, audio time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordTranscription(result, audio)
	}
}
