package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/FreeSideNomad/proxima/pkg/config"
)

// OIDCMetrics tracks identity provider activity.
//
// Metrics:
//   - proxima_oidc_codes_issued_total: authorization codes issued per client
//   - proxima_oidc_token_exchanges_total: token endpoint outcomes
//   - proxima_oidc_tokens_minted_total: token sets minted per preset
type OIDCMetrics struct {
	codesIssued    *prometheus.CounterVec
	tokenExchanges *prometheus.CounterVec
	tokensMinted   *prometheus.CounterVec
}

// NewOIDCMetrics creates and registers the identity provider metric family.
func NewOIDCMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *OIDCMetrics {
	om := &OIDCMetrics{
		codesIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "oidc",
				Name:      "codes_issued_total",
				Help:      "Total number of authorization codes issued",
			},
			[]string{"client_id"},
		),

		tokenExchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "oidc",
				Name:      "token_exchanges_total",
				Help:      "Total number of token endpoint requests by outcome",
			},
			[]string{"outcome"},
		),

		tokensMinted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "oidc",
				Name:      "tokens_minted_total",
				Help:      "Total number of token sets minted",
			},
			[]string{"preset"},
		),
	}

	registry.MustRegister(om.codesIssued, om.tokenExchanges, om.tokensMinted)
	return om
}

// RecordCodeIssued records one issued authorization code. Safe on a nil
// receiver.
func (om *OIDCMetrics) RecordCodeIssued(clientID string) {
	if om == nil {
		return
	}
	om.codesIssued.WithLabelValues(clientID).Inc()
}

// RecordTokenExchange records one token endpoint request. Outcome is
// "success" or the OAuth error code. Safe on a nil receiver.
func (om *OIDCMetrics) RecordTokenExchange(outcome string) {
	if om == nil {
		return
	}
	om.tokenExchanges.WithLabelValues(outcome).Inc()
}

// RecordTokensMinted records one minted token set. Safe on a nil receiver.
func (om *OIDCMetrics) RecordTokensMinted(preset string) {
	if om == nil {
		return
	}
	om.tokensMinted.WithLabelValues(preset).Inc()
}
