package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Downstream defaults
	DefaultDownstreamURL = "http://localhost:3000"

	// Proxy defaults
	DefaultProxyTimeout = 30 * time.Second

	// Route defaults
	DefaultRoutePriority = 50

	// OIDC defaults
	DefaultIssuer             = "http://localhost:8080"
	DefaultTokenExpirySeconds = 3600
	DefaultAlgorithm          = "RS256"
	DefaultKeyID              = "default"

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsNamespace = "proxima"
)

// DefaultReservedPrefixes are the path prefixes that are never proxied.
func DefaultReservedPrefixes() []string {
	return []string{"/proxima/", "/actuator/"}
}

// DefaultScopes are the scopes granted to a persona that declares none.
func DefaultScopes() []string {
	return []string{"openid", "profile", "email"}
}

// ApplyDefaults fills in default values for any configuration fields that
// were not specified in the document. It modifies the config in place.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	if cfg.Downstream.URL == "" {
		cfg.Downstream.URL = DefaultDownstreamURL
	}

	if cfg.Proxy.Timeout == 0 {
		cfg.Proxy.Timeout = DefaultProxyTimeout
	}

	if len(cfg.ReservedPrefixes) == 0 {
		cfg.ReservedPrefixes = DefaultReservedPrefixes()
	}

	for i := range cfg.Routes {
		applyRouteDefaults(&cfg.Routes[i])
	}

	if cfg.OIDC.DefaultExpiry == 0 {
		cfg.OIDC.DefaultExpiry = DefaultTokenExpirySeconds
	}
	if len(cfg.OIDC.SupportedScopes) == 0 {
		cfg.OIDC.SupportedScopes = DefaultScopes()
	}

	for i := range cfg.Presets {
		applyPersonaDefaults(cfg.Presets[i].OIDC)
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// applyRouteDefaults fills in default values on a route rule. An omitted
// enabled field means the rule is active.
func applyRouteDefaults(r *RouteRule) {
	if r.Enabled == nil {
		enabled := true
		r.Enabled = &enabled
	}
	if r.Priority == 0 {
		r.Priority = DefaultRoutePriority
	}
}

// applyPersonaDefaults fills in default values on an OIDC persona.
func applyPersonaDefaults(p *Persona) {
	if p == nil {
		return
	}
	if p.TokenExpirationSeconds == 0 {
		p.TokenExpirationSeconds = DefaultTokenExpirySeconds
	}
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.KeyID == "" {
		p.KeyID = DefaultKeyID
	}
	if len(p.Scopes) == 0 {
		p.Scopes = DefaultScopes()
	}
	if p.CustomClaims == nil {
		p.CustomClaims = map[string]any{}
	}
}
