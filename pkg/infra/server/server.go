// Package server provides an HTTP server with unified lifecycle handling.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	httpopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/server/http"
)

// Lifecycle defines the lifecycle interface for servers.
type Lifecycle interface {
	// Start starts the server.
	Start(ctx context.Context) error
	// Stop stops the server gracefully.
	Stop(ctx context.Context) error
}

// Server wraps an http.Server around a gin engine.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

var _ Lifecycle = (*Server)(nil)

// Config configures a Server.
type Config struct {
	HTTP *httpopts.Options
	// ShutdownTimeout bounds the graceful drain on Stop.
	// Default: 10s.
	ShutdownTimeout time.Duration
}

// New creates a Server serving the given gin engine.
//
// WriteTimeout from the HTTP options is not applied to the underlying
// http.Server: streamed answers hold the response open for longer than
// any sane fixed write deadline, so per-request deadlines are enforced
// by handlers instead.
func New(engine *gin.Engine, cfg Config) *Server {
	if cfg.HTTP == nil {
		cfg.HTTP = httpopts.NewOptions()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	return &Server{
		srv: &http.Server{
			Addr:        cfg.HTTP.Addr,
			Handler:     engine,
			ReadTimeout: cfg.HTTP.ReadTimeout,
			IdleTimeout: cfg.HTTP.IdleTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start(_ context.Context) error {
	logger.Infow("HTTP server starting", "addr", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	logger.Infow("HTTP server stopping", "addr", s.srv.Addr)

	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	return s.srv.Shutdown(ctx)
}

// Run starts the server and blocks until the context is cancelled or a
// SIGINT/SIGTERM arrives, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Infow("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	if err := s.Stop(context.Background()); err != nil {
		return err
	}
	return <-errCh
}
