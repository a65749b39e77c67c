// Package server provides the HTTP API for Osusume.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Osusume API.
type Server struct {
	engine  *recommend.Engine
	storage storage.Storage
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *recommend.Engine,
	storage storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:  engine,
		storage: storage,
		config:  cfg,
		logger:  logger,
	}
}

// Handler builds the router with middleware and all routes.
func (s *Server) Handler() http.Handler {
	timeout := time.Duration(s.config.Server.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if limit := s.config.Server.RateLimitPerMinute; limit > 0 {
			r.Use(httprate.LimitByIP(limit, time.Minute))
		}
		r.Get("/recommendations/products", s.handleRecommendProducts)
		r.Get("/recommendations/stores", s.handleRecommendStores)
		r.Get("/users/{id}/profile", s.handleUserProfile)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
