package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/FreeSideNomad/proxima/pkg/config"
)

// Collector owns the Prometheus registry and the metric families for the
// proxy and the identity provider. A nil *Collector is a valid no-op
// recorder, so callers never have to branch on whether metrics are enabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	proxy *ProxyMetrics
	oidc  *OIDCMetrics
}

// NewCollector creates a collector and registers all metric families with
// the given registry. A nil registry gets a fresh private one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		proxy:    NewProxyMetrics(cfg, registry),
		oidc:     NewOIDCMetrics(cfg, registry),
	}
}

// Proxy returns the proxy metric family. Safe on a nil collector.
func (c *Collector) Proxy() *ProxyMetrics {
	if c == nil {
		return nil
	}
	return c.proxy
}

// OIDC returns the identity provider metric family. Safe on a nil collector.
func (c *Collector) OIDC() *OIDCMetrics {
	if c == nil {
		return nil
	}
	return c.oidc
}
