// Package handlers contains the HTTP surface of the simulated identity
// provider: the OAuth2 authorization code flow, OpenID Connect discovery
// and JWKS documents, and the admin APIs for signing keys and runtime
// configuration.
package handlers
