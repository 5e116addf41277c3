// Package scheduler wraps a cron runner for Proxima's background
// maintenance: expired authorization code sweeps and token refresh.
package scheduler
