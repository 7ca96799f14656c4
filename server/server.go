// Package server provides the HTTP conversion server and its lifecycle:
// router and middleware setup, routes and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/giygas/trialsites/config"
	"github.com/giygas/trialsites/converter"
	"github.com/giygas/trialsites/handlers"
	"github.com/giygas/trialsites/health"
	"github.com/giygas/trialsites/interfaces"
	"github.com/giygas/trialsites/logging"
	"github.com/giygas/trialsites/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const rateLimiterCleanupInterval = 10 * time.Minute

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	converter   *converter.Converter
	runStore    interfaces.RunStore
	rateLimiter *RateLimiter
	config      *config.Config
	stop        chan struct{}
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, conv *converter.Converter, runStore interfaces.RunStore) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:      router,
		converter:   conv,
		runStore:    runStore,
		rateLimiter: NewRateLimiter(),
		config:      cfg,
		stop:        make(chan struct{}),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.rateLimiter.Middleware)
	s.router.Use(metrics.Metrics)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	defaultAnalysis, err := converter.ParseAnalysis(s.config.DefaultAnalysis)
	if err != nil {
		// config.Load already validated it
		defaultAnalysis = converter.DefaultAnalysis
	}

	s.router.Post("/convert", handlers.Convert(s.converter, s.runStore, defaultAnalysis, s.config.SheetName))
	s.router.Get("/health", handlers.HealthCheck(health.NewHealthChecker(s.runStore, 0)))
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start starts the server
func (s *Server) Start() error {
	s.rateLimiter.runCleanup(rateLimiterCleanupInterval, s.stop)

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	select {
	case <-s.stop:
	default:
		close(s.stop)
	}

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
