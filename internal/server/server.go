// Package server exposes the extension message protocol over HTTP.
package server

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/EdwardH92/CliffDive/internal/clock"
	"github.com/EdwardH92/CliffDive/internal/config"
	"github.com/EdwardH92/CliffDive/internal/detector"
	"github.com/EdwardH92/CliffDive/internal/tracker"
)

// Server is the extension-facing HTTP server.
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)

	tracker *tracker.Tracker
	manager *detector.Manager
	limiter *tabLimiter
	clk     clock.Clock
}

// New creates the message protocol server.
func New(cfg config.ServerConfig, addr string, tr *tracker.Tracker, mgr *detector.Manager, clk clock.Clock, logger zerolog.Logger) *Server {
	s := &Server{
		logger:  logger.With().Str("component", "server").Logger(),
		tracker: tr,
		manager: mgr,
		limiter: newTabLimiter(cfg.RateLimitPerTab, cfg.RateLimitBurst),
		clk:     clk,
	}
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router(),
	}
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/message", s.handleMessage)
		r.Get("/analytics", s.handleAnalytics)
	})
	return r
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the server in the background.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting message server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Message server error")
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping message server")
	s.limiter.Stop()
	return s.server.Shutdown(ctx)
}
