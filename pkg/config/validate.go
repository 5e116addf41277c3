package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "routes[2].target_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration document. It implements the error interface.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All errors are collected and returned
// together. An active_preset naming a missing preset is not an error; the
// first declared preset is used as a runtime fallback.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateDownstream(&cfg.Downstream)...)
	errs = append(errs, validateRoutes(cfg.Routes)...)
	errs = append(errs, validatePresets(cfg.Presets)...)
	errs = append(errs, validateReservedPrefixes(cfg.ReservedPrefixes)...)
	errs = append(errs, validateOIDC(&cfg.OIDC)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(s *ServerConfig) []FieldError {
	var errs []FieldError

	if s.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, FieldError{"server.read_timeout", "must not be negative"})
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, FieldError{"server.write_timeout", "must not be negative"})
	}
	if s.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{"server.max_header_bytes", "must not be negative"})
	}

	return errs
}

func validateDownstream(d *DownstreamConfig) []FieldError {
	if err := validateAbsoluteURL(d.URL); err != nil {
		return []FieldError{{"downstream.url", err.Error()}}
	}
	return nil
}

func validateRoutes(routes []RouteRule) []FieldError {
	var errs []FieldError

	for i, route := range routes {
		field := func(name string) string {
			return fmt.Sprintf("routes[%d].%s", i, name)
		}

		if route.PathPattern == "" {
			errs = append(errs, FieldError{field("path_pattern"), "must not be empty"})
		} else if !strings.HasPrefix(route.PathPattern, "/") {
			errs = append(errs, FieldError{field("path_pattern"), "must start with \"/\""})
		}

		if err := validateAbsoluteURL(route.TargetURL); err != nil {
			errs = append(errs, FieldError{field("target_url"), err.Error()})
		}
	}

	return errs
}

func validatePresets(presets []Preset) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool, len(presets))

	for i, preset := range presets {
		field := func(name string) string {
			return fmt.Sprintf("presets[%d].%s", i, name)
		}

		if preset.Name == "" {
			errs = append(errs, FieldError{field("name"), "must not be empty"})
		} else if seen[preset.Name] {
			errs = append(errs, FieldError{field("name"), fmt.Sprintf("duplicate preset name %q", preset.Name)})
		}
		seen[preset.Name] = true

		errs = append(errs, validatePersona(preset.OIDC, field)...)
	}

	return errs
}

func validatePersona(p *Persona, field func(string) string) []FieldError {
	if p == nil || !p.Enabled {
		return nil
	}

	var errs []FieldError

	if p.Subject == "" {
		errs = append(errs, FieldError{field("oidc.subject"), "required when oidc is enabled"})
	}
	if p.ClientID == "" {
		errs = append(errs, FieldError{field("oidc.client_id"), "required when oidc is enabled"})
	}
	if p.RedirectURI == "" {
		errs = append(errs, FieldError{field("oidc.redirect_uri"), "required when oidc is enabled"})
	} else if err := validateAbsoluteURL(p.RedirectURI); err != nil {
		errs = append(errs, FieldError{field("oidc.redirect_uri"), err.Error()})
	}

	switch strings.ToUpper(p.Algorithm) {
	case "HS256", "RS256":
	default:
		errs = append(errs, FieldError{field("oidc.algorithm"), fmt.Sprintf("unsupported algorithm %q (must be HS256 or RS256)", p.Algorithm)})
	}

	if p.TokenExpirationSeconds < 0 {
		errs = append(errs, FieldError{field("oidc.token_expiration_seconds"), "must not be negative"})
	}

	return errs
}

func validateReservedPrefixes(prefixes []string) []FieldError {
	var errs []FieldError

	for i, prefix := range prefixes {
		if !strings.HasPrefix(prefix, "/") {
			errs = append(errs, FieldError{
				fmt.Sprintf("reserved_prefixes[%d]", i),
				"must start with \"/\"",
			})
		}
	}

	return errs
}

func validateOIDC(o *OIDCConfig) []FieldError {
	var errs []FieldError

	if o.Issuer != "" {
		if err := validateAbsoluteURL(o.Issuer); err != nil {
			errs = append(errs, FieldError{"oidc.issuer", err.Error()})
		}
	}
	if o.DefaultExpiry < 300 {
		errs = append(errs, FieldError{"oidc.default_expiry", "must be at least 300 seconds"})
	}
	if o.DefaultExpiry > 86400 {
		errs = append(errs, FieldError{"oidc.default_expiry", "must not exceed 86400 seconds"})
	}

	hasOpenID := false
	for _, scope := range o.SupportedScopes {
		if scope == "openid" {
			hasOpenID = true
		}
	}
	if !hasOpenID {
		errs = append(errs, FieldError{"oidc.supported_scopes", "must include \"openid\""})
	}

	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch t.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("invalid log level %q", t.Logging.Level)})
	}

	switch t.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("invalid log format %q", t.Logging.Format)})
	}

	return errs
}

// validateAbsoluteURL ensures a string parses as an absolute http(s) URL.
func validateAbsoluteURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("must not be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}
