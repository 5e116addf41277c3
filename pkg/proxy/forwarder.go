package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/FreeSideNomad/proxima/pkg/config"
	"github.com/FreeSideNomad/proxima/pkg/headers"
	"github.com/FreeSideNomad/proxima/pkg/routing"
	"github.com/FreeSideNomad/proxima/pkg/telemetry/metrics"
)

// Forwarder is the catch-all handler that relays requests to the
// downstream application. It resolves the target via the route table,
// applies the active preset's header transform, and streams the upstream
// response back unchanged apart from hop-by-hop headers.
type Forwarder struct {
	resolver *routing.Resolver
	store    *config.Store
	client   *http.Client
	metrics  *metrics.ProxyMetrics
	logger   *slog.Logger
}

// NewForwarder creates a forwarder. A nil metrics family disables
// recording without any call-site branching.
func NewForwarder(resolver *routing.Resolver, store *config.Store, pm *metrics.ProxyMetrics) *Forwarder {
	return &Forwarder{
		resolver: resolver,
		store:    store,
		client: &http.Client{
			// Redirects from the downstream are relayed to the client,
			// never followed by the proxy.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		metrics: pm,
		logger:  slog.Default().With("component", "proxy.forwarder"),
	}
}

// timeout returns the configured per-request forwarding timeout.
func (f *Forwarder) timeout() time.Duration {
	if t := f.store.Snapshot().Proxy.Timeout; t > 0 {
		return t
	}
	return config.DefaultProxyTimeout
}

func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	resolution, err := f.resolver.Resolve(r.URL.Path)
	if err != nil {
		// Reserved paths that reach the forwarder have no registered
		// handler, so they are unknown routes from the client's view.
		writeJSONError(w, http.StatusNotFound, "Route not found")
		return
	}

	route := "default"
	if resolution.Matched {
		route = "rule"
	}

	target := resolution.Target
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	ctx, cancel := context.WithTimeout(r.Context(), f.timeout())
	defer cancel()

	outbound, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		f.logger.Error("failed to build downstream request",
			"target", target,
			"error", err,
		)
		writeJSONError(w, http.StatusBadGateway, "Invalid downstream target")
		return
	}
	outbound.Header = headers.Transform(r.Header, f.store.ActivePreset())
	if r.ContentLength >= 0 {
		outbound.ContentLength = r.ContentLength
	}

	resp, err := f.client.Do(outbound)
	if err != nil {
		status := http.StatusBadGateway
		kind := "transport"
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
			kind = "timeout"
		}

		f.logger.Error("downstream request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"target", target,
			"error", err,
		)
		f.metrics.RecordError(kind)
		f.metrics.RecordRequest(r.Method, route, status, time.Since(start))
		writeJSONError(w, status, "Downstream request failed")
		return
	}
	defer resp.Body.Close()

	copyResponseHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		f.logger.Warn("error streaming downstream response",
			"path", r.URL.Path,
			"error", err,
		)
	}

	f.metrics.RecordRequest(r.Method, route, resp.StatusCode, time.Since(start))
}

// copyResponseHeaders relays upstream response headers, dropping
// hop-by-hop ones. Transfer-Encoding in particular must go: the body is
// re-framed by this server's own transport.
func copyResponseHeaders(dst, src http.Header) {
	for name, values := range src {
		if headers.IsHopByHop(name) {
			continue
		}
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}

// writeJSONError writes the proxy error body.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
