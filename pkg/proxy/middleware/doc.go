// Package middleware provides the HTTP middleware chain shared by every
// endpoint: panic recovery, request ID propagation, client IP resolution,
// and structured request logging.
package middleware
