package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FreeSideNomad/proxima/pkg/config"
)

// ProxyMetrics tracks forwarded request outcomes.
//
// Metrics:
//   - proxima_proxy_requests_total: forwarded requests by method, status, and route kind
//   - proxima_proxy_request_duration_seconds: end-to-end forwarding latency
//   - proxima_proxy_errors_total: upstream failures by kind
type ProxyMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
}

// NewProxyMetrics creates and registers the proxy metric family.
func NewProxyMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProxyMetrics {
	pm := &ProxyMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "proxy",
				Name:      "requests_total",
				Help:      "Total number of forwarded requests",
			},
			[]string{"method", "status", "route"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "proxy",
				Name:      "request_duration_seconds",
				Help:      "Duration of forwarded requests in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "route"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "proxy",
				Name:      "errors_total",
				Help:      "Total number of upstream failures by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(pm.requestsTotal, pm.requestDuration, pm.errorsTotal)
	return pm
}

// RecordRequest records one forwarded request. The route label tells rule
// matches apart from default-downstream forwards so that dashboards can
// split the two. Safe on a nil receiver.
func (pm *ProxyMetrics) RecordRequest(method, route string, status int, duration time.Duration) {
	if pm == nil {
		return
	}
	pm.requestsTotal.WithLabelValues(method, strconv.Itoa(status), route).Inc()
	pm.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError records one upstream failure. Kind is "timeout" or
// "transport". Safe on a nil receiver.
func (pm *ProxyMetrics) RecordError(kind string) {
	if pm == nil {
		return
	}
	pm.errorsTotal.WithLabelValues(kind).Inc()
}
