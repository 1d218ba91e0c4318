// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

// Package api is the operational HTTP surface: read-only pipeline queries,
// health, and Prometheus metrics. The domain boundary stays in-process; web
// handlers of the surrounding application call the services directly.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/recshelf/recshelf/internal/config"
)

// Server serves the operational API. It implements suture.Service.
type Server struct {
	cfg     config.ServerConfig
	handler *Handler
	logger  zerolog.Logger
}

// NewServer creates the server around a handler set.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewServer(cfg config.ServerConfig, handler *Handler, logger zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// Routes builds the router. Exposed separately so tests can drive the
// handler stack without a listener.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestMetrics)

	r.Get("/healthz", s.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.cfg.RateLimitReqs, s.cfg.RateLimitWindow))

		r.Get("/users/{userID}/recommendations", s.handler.Recommendations)
		r.Get("/documents/{documentID}/embedding", s.handler.Embedding)
		r.Get("/jobs/{kind}/{entityID}", s.handler.JobStatus)
	})

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Timeout,
		WriteTimeout:      s.cfg.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info().Str("addr", srv.Addr).Msg("api server listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// String returns the service name for supervisor logging.
func (s *Server) String() string {
	return "api-server"
}
