// Package health provides liveness and readiness probes under the
// /actuator/health endpoints.
package health
