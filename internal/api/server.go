package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/offer-monitor/internal/config"
)

// Server serves the analysis API.
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer routes handlers behind the standard middleware stack.
func NewServer(cfg config.ServerConfig, handlers *Handlers) *Server {
	return &Server{config: cfg, handler: SetupRoutes(handlers)}
}

// ListenAndServe blocks serving addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	// Uploads and full-window runs are slow; keep generous body timeouts.
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       2 * time.Minute,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}
