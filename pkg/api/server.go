// Package api exposes packet construction, encoding, decoding and the packet
// archive over HTTP.
package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ssargent/packetwire/pkg/codec"
)

const defaultMaxBodyBytes = codec.DefaultMaxPayloadBytes + 1024

// Server holds the API server state
type Server struct {
	codec   *codec.PacketCodec
	archive PacketArchive
	config  ServerConfig
	metrics *Metrics
	logger  zerolog.Logger
}

// NewServer creates a new API server. archive may be nil, in which case the
// archive routes answer 503.
func NewServer(pc *codec.PacketCodec, archive PacketArchive, config ServerConfig, metrics *Metrics, logger zerolog.Logger) *Server {
	if pc == nil {
		pc = codec.NewPacketCodec()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{
		codec:   pc,
		archive: archive,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// Routes builds the HTTP handler with all routes configured
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.config.APIKey, s.metrics))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Packet operations
		r.Post("/packets/encode", s.metrics.InstrumentHandler("POST", "/api/v1/packets/encode", s.handleEncode))
		r.Post("/packets/decode", s.metrics.InstrumentHandler("POST", "/api/v1/packets/decode", s.handleDecode))
		r.Post("/packets/verify", s.metrics.InstrumentHandler("POST", "/api/v1/packets/verify", s.handleVerify))

		// Archive
		r.Post("/archive", s.metrics.InstrumentHandler("POST", "/api/v1/archive", s.handleArchivePut))
		r.Get("/archive", s.metrics.InstrumentHandler("GET", "/api/v1/archive", s.handleArchiveList))
		r.Get("/archive/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/archive/{id}", s.handleArchiveGet))
		r.Delete("/archive/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/archive/{id}", s.handleArchiveDelete))
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting packetwire API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "api: listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info().Msg("shutting down packetwire API server")
		return srv.Shutdown(shutdownCtx)
	}
}
