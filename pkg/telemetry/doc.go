// Package telemetry groups Proxima's observability concerns.
//
// # Components
//
//   - logging: structured slog setup (JSON or text)
//   - metrics: Prometheus metric families and the exposition handler
//   - health: liveness and readiness checks under /actuator/health
package telemetry
