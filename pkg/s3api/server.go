// Package s3api is the HTTP protocol adapter: routing, SigV4 authentication,
// virtual-host rewriting, XML serialization and error mapping between the S3
// wire format and the gateway core. Handlers hold no state of their own.
package s3api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/marmos91/shelf/internal/logger"
	"github.com/marmos91/shelf/pkg/gateway"
	"github.com/marmos91/shelf/pkg/metrics"
)

// Server is the S3-facing HTTP server. Created stopped; Start blocks until
// the context is cancelled or serving fails.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer builds the S3 server over a gateway. Metrics may be nil.
func NewServer(cfg Config, gw *gateway.Gateway, m *metrics.S3Metrics) *Server {
	cfg.applyDefaults()

	return &Server{
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           NewRouter(gw, cfg, m),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		config: cfg,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start serves until the context is cancelled, then drains gracefully
// within the configured shutdown window.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("S3 server listening",
			logger.KeyHost, s.config.Host, logger.KeyPort, s.config.Port,
			"anonymous", s.config.Anonymous())

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("S3 server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("S3 server failed: %w", err)
	}
}

// Stop drains in-flight requests and closes the listener. Safe to call more
// than once and concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("S3 server shutdown error: %w", err)
			logger.Error("S3 server shutdown error", logger.Err(err))
		} else {
			logger.Info("S3 server stopped gracefully")
		}
	})
	return shutdownErr
}
