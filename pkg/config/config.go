package config

import "time"

// Config is the root configuration document for Proxima. It describes the
// proxy server, the default downstream target, the ordered route rules, the
// header presets (with optional OIDC personas), and telemetry settings.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Downstream is the default downstream target used when no route rule
	// matches an inbound path.
	Downstream DownstreamConfig `yaml:"downstream"`

	// ActivePreset is the name of the header preset applied to proxied
	// requests. If unset or naming a missing preset, the first preset in
	// declaration order is used as a fallback.
	ActivePreset string `yaml:"active_preset"`

	// ReservedPrefixes lists path prefixes that are never proxied
	// (Proxima's own API and health namespaces). The bare root path "/"
	// is always reserved regardless of this list.
	ReservedPrefixes []string `yaml:"reserved_prefixes"`

	// Routes is the ordered list of route rules. Matching is first-match
	// in declaration order.
	Routes []RouteRule `yaml:"routes"`

	// Presets contains the named header presets.
	Presets []Preset `yaml:"presets"`

	// OIDC contains identity-provider level settings shared by all
	// personas (issuer, default expiry, supported scopes).
	OIDC OIDCConfig `yaml:"oidc"`

	// Proxy contains forwarding behavior configuration.
	Proxy ProxyConfig `yaml:"proxy"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port". Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes. Default: 60s (must exceed the downstream proxy timeout)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout. Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown. Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size. Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// DownstreamConfig identifies the default downstream service.
type DownstreamConfig struct {
	// URL is the base URL requests are forwarded to when no route rule
	// matches. Default: "http://localhost:3000"
	URL string `yaml:"url"`
}

// ProxyConfig contains forwarding behavior configuration.
type ProxyConfig struct {
	// Timeout bounds a single downstream call. When exceeded the in-flight
	// call is cancelled and a gateway timeout is returned. Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// RouteRule maps a path pattern to a downstream target. Patterns support
// double wildcards ("/api/**"), single-segment wildcards ("/api/*"),
// embedded wildcards ("/api/*/health"), and exact/prefix matches.
type RouteRule struct {
	// PathPattern is the pattern matched against the inbound request path.
	PathPattern string `yaml:"path_pattern"`

	// TargetURL is the base URL matched requests are forwarded to.
	TargetURL string `yaml:"target_url"`

	// Description is a human-readable label used in logs.
	Description string `yaml:"description"`

	// Enabled controls whether the rule participates in matching.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Priority is carried in the document but does not influence match
	// order; rules are evaluated strictly in declaration order.
	// Default: 50
	Priority int `yaml:"priority"`
}

// RouteEnabled reports whether the rule participates in matching, applying
// the default when the field is absent from the document.
func (r *RouteRule) RouteEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Preset is a named bundle of header injection and rename rules, optionally
// paired with a simulated OIDC identity.
type Preset struct {
	// Name uniquely identifies the preset.
	Name string `yaml:"name"`

	// DisplayName is the human-readable preset label.
	DisplayName string `yaml:"display_name"`

	// Headers are static headers applied to every proxied request. They
	// overwrite any same-named header from the inbound request.
	Headers map[string]string `yaml:"headers"`

	// HeaderMappings renames inbound headers before forwarding
	// (inbound name -> outbound name).
	HeaderMappings map[string]string `yaml:"header_mappings"`

	// OIDC is the optional simulated identity for this preset.
	OIDC *Persona `yaml:"oidc"`
}

// OIDCEnabled reports whether this preset carries an enabled OIDC persona.
func (p *Preset) OIDCEnabled() bool {
	return p != nil && p.OIDC != nil && p.OIDC.Enabled
}

// Persona describes the simulated end-user identity a preset issues tokens
// for: its claims, scopes, and signing choice.
type Persona struct {
	// Enabled controls whether tokens are issued for this preset.
	Enabled bool `yaml:"enabled"`

	// Subject is the "sub" claim of issued tokens.
	Subject string `yaml:"subject"`

	// TokenExpirationSeconds is the lifetime of issued tokens.
	// Default: 3600
	TokenExpirationSeconds int64 `yaml:"token_expiration_seconds"`

	// Algorithm selects the signing algorithm: "HS256" or "RS256".
	// Default: "RS256"
	Algorithm string `yaml:"algorithm"`

	// KeyID selects the signing key. Default: "default"
	KeyID string `yaml:"key_id"`

	// Optional standard claims.
	Email             string   `yaml:"email"`
	Name              string   `yaml:"name"`
	PreferredUsername string   `yaml:"preferred_username"`
	Groups            []string `yaml:"groups"`

	// CustomClaims are merged into issued tokens. Standard claims and the
	// optional persona claims above always win on conflict.
	CustomClaims map[string]any `yaml:"custom_claims"`

	// Scopes granted to this persona. Default: [openid, profile, email]
	Scopes []string `yaml:"scopes"`

	// ClientID identifies this persona in the authorization code flow.
	ClientID string `yaml:"client_id"`

	// RedirectURI is the only redirect target accepted for this persona.
	RedirectURI string `yaml:"redirect_uri"`
}

// OIDCConfig contains provider-level OIDC settings.
type OIDCConfig struct {
	// Issuer is the issuer URL embedded in tokens and the discovery
	// document. When empty the server derives it from the request host.
	Issuer string `yaml:"issuer"`

	// DefaultExpiry is the token lifetime in seconds used when a request
	// does not specify one. Default: 3600
	DefaultExpiry int `yaml:"default_expiry"`

	// SupportedScopes advertised by the discovery document.
	// Default: [openid, profile, email]
	SupportedScopes []string `yaml:"supported_scopes"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text". Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace. Default: "proxima"
	Namespace string `yaml:"namespace"`
}

// MetricsEnabled reports whether metrics collection is on, applying the
// default when the field is absent from the document.
func (m *MetricsConfig) MetricsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}
