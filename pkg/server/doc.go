// Package server ties together Proxima's components and manages the
// HTTP server lifecycle.
//
// # Architecture
//
// The server package is the top-level orchestrator that:
//   - Registers control-plane routes (OIDC, admin APIs, health, metrics)
//   - Mounts the forwarding handler as the catch-all route
//   - Chains middleware for cross-cutting concerns
//   - Manages graceful shutdown
//   - Handles OS signals (SIGTERM, SIGINT)
//
// # Basic Usage
//
// Creating and starting a server:
//
//	import (
//	    "context"
//	    "github.com/FreeSideNomad/proxima/pkg/config"
//	    "github.com/FreeSideNomad/proxima/pkg/server"
//	)
//
//	store, err := config.NewStore(configPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv := server.NewServer(&store.Snapshot().Server, server.Components{
//	    Store:     store,
//	    Keys:      keys,
//	    Ledger:    ledger,
//	    Cache:     cache,
//	    Forwarder: forwarder,
//	    Checker:   checker,
//	    Metrics:   collector,
//	})
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Routes
//
// The server exposes the following control-plane endpoints:
//
//   - GET /.well-known/openid-configuration - OIDC discovery document
//   - GET /.well-known/jwks.json - JSON Web Key Set
//   - GET /oauth2/authorize - Authorization code issuance
//   - POST /oauth2/token - Code-for-token exchange
//   - /proxima/api/jwt/* - Key and token administration
//   - /proxima/api/config* - Runtime configuration administration
//   - GET /actuator/health - Liveness probe
//   - GET /actuator/health/ready - Readiness probe
//   - GET /proxima/metrics - Prometheus exposition (when enabled)
//
// Every other path is forwarded downstream by the proxy handler.
//
// # Middleware Chain
//
// Requests pass through the following middleware (outermost to innermost):
//  1. Recovery: Recovers from panics and returns 500 error
//  2. RequestID: Generates unique request ID for tracing
//  3. ClientIP: Resolves the originating client address
//  4. Logging: Logs request/response details
//
// # Graceful Shutdown
//
// The server shuts down on SIGTERM or SIGINT, or when Shutdown is called:
//  1. Stops accepting new connections
//  2. Waits for active connections to complete (up to shutdown timeout)
//  3. Forces connection closure if timeout exceeded
package server
