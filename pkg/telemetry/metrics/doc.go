// Package metrics exposes Prometheus metrics for the proxy and the
// simulated identity provider. All record methods tolerate nil receivers,
// so disabling metrics means passing a nil collector rather than guarding
// every call site.
package metrics
