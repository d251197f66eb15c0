// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

// Package httpapi exposes the identity, role and project services over a
// role-gated JSON API.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/auth"
	"github.com/proyecta/proyecta/internal/identity"
	"github.com/proyecta/proyecta/internal/observability"
	"github.com/proyecta/proyecta/internal/project"
)

// Server serves the JSON API.
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool

	gate     *auth.Gate
	registry *identity.Registry
	tutors   *identity.TutorService
	students *identity.StudentService
	projects *project.Service
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Deps carries the collaborators the server dispatches to. Metrics and
// Logger may be nil.
type Deps struct {
	Gate     *auth.Gate
	Registry *identity.Registry
	Tutors   *identity.TutorService
	Students *identity.StudentService
	Projects *project.Service
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// NewServer creates an API server listening on addr.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:     addr,
		gate:     deps.Gate,
		registry: deps.Registry,
		tutors:   deps.Tutors,
		students: deps.Students,
		projects: deps.Projects,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// Start begins serving the API. It returns an error channel that will
// receive any errors from the HTTP server after it starts; the channel
// is closed when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
