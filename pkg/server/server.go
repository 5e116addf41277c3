// Package server assembles Proxima's HTTP surface: the control plane
// (OIDC endpoints, admin APIs, health, metrics) and the catch-all
// forwarding handler, wrapped in the shared middleware chain.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/FreeSideNomad/proxima/pkg/config"
	"github.com/FreeSideNomad/proxima/pkg/oidc/codes"
	"github.com/FreeSideNomad/proxima/pkg/oidc/handlers"
	"github.com/FreeSideNomad/proxima/pkg/oidc/keystore"
	"github.com/FreeSideNomad/proxima/pkg/oidc/tokens"
	"github.com/FreeSideNomad/proxima/pkg/proxy"
	"github.com/FreeSideNomad/proxima/pkg/proxy/middleware"
	"github.com/FreeSideNomad/proxima/pkg/telemetry/health"
	"github.com/FreeSideNomad/proxima/pkg/telemetry/metrics"
)

// Components holds the wired subsystems the server exposes over HTTP.
type Components struct {
	Store     *config.Store
	Keys      *keystore.Store
	Ledger    *codes.Ledger
	Cache     *tokens.Cache
	Forwarder *proxy.Forwarder
	Checker   *health.Checker
	Metrics   *metrics.Collector
}

// Server is the main HTTP server. Control-plane routes are registered on
// an exact-match basis; everything else falls through to the forwarder.
type Server struct {
	config       *config.ServerConfig
	components   Components
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	logger       *slog.Logger
}

// NewServer creates a new server from the given configuration and
// wired components.
func NewServer(cfg *config.ServerConfig, components Components) *Server {
	return &Server{
		config:       cfg,
		components:   components,
		shutdownChan: make(chan struct{}),
		logger:       slog.Default().With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests up to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// setupRoutes registers control-plane routes and the forwarding fallback,
// then applies the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	discovery := handlers.NewDiscovery(s.components.Store, s.components.Keys)
	discovery.Register(mux)

	flow := handlers.NewFlow(s.components.Store, s.components.Ledger, s.components.Cache, s.components.Metrics.OIDC())
	flow.Register(mux)

	jwtAdmin := handlers.NewJWTAdmin(s.components.Keys)
	jwtAdmin.Register(mux)

	configAdmin := handlers.NewConfigAdmin(s.components.Store, s.components.Ledger, s.components.Cache)
	configAdmin.Register(mux)

	s.components.Checker.Register(mux)

	if s.components.Metrics != nil {
		mux.Handle("/proxima/metrics", s.components.Metrics.Handler())
	}

	// Everything not claimed above is proxied downstream.
	mux.Handle("/", s.components.Forwarder)

	// Logging reads the request ID and client address from the context,
	// so those middlewares must run before it.
	var handler http.Handler = mux
	handler = middleware.Logging(handler)
	handler = middleware.ClientIP(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)

	return handler
}

// Handler returns the configured HTTP handler without starting the
// listener. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
