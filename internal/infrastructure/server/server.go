// Package server exposes Prometheus metrics and health endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Logger interface {
	Infof(template string, args ...interface{})
}

type Server struct {
	server  *http.Server
	checker *Checker
	logger  Logger
}

func New(addr string, logger Logger) *Server {
	mux := http.NewServeMux()
	checker := NewChecker()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", checker.Handler())
	mux.HandleFunc("/ready", textHandler("ready\n"))
	mux.HandleFunc("/live", textHandler("alive\n"))

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
		},
		checker: checker,
		logger:  logger,
	}
}

func (s *Server) RegisterHealthCheck(name string, fn CheckFunc) {
	s.checker.Register(name, fn)
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	if s.logger != nil {
		s.logger.Infof("Metrics server listening on %s", ln.Addr())
	}
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
