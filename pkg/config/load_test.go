package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
server:
  listen_address: "127.0.0.1:9080"
downstream:
  url: "http://localhost:3000"
active_preset: developer
routes:
  - path_pattern: "/api/orders/**"
    target_url: "http://localhost:9001"
    description: "order service"
    enabled: true
    priority: 5
presets:
  - name: developer
    display_name: "Developer"
    headers:
      X-User-Id: "dev-1"
      X-Roles: "admin"
    header_mappings:
      Authorization: "X-Original-Authorization"
    oidc:
      enabled: true
      subject: "dev-user-1"
      email: "dev@example.com"
      client_id: "dev-client"
      redirect_uri: "http://localhost:3000/callback"
  - name: anonymous
oidc:
  issuer: "http://localhost:9080"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proxima.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9080" {
		t.Errorf("unexpected listen address %q", cfg.Server.ListenAddress)
	}
	if cfg.Downstream.URL != "http://localhost:3000" {
		t.Errorf("unexpected downstream URL %q", cfg.Downstream.URL)
	}
	if cfg.ActivePreset != "developer" {
		t.Errorf("unexpected active preset %q", cfg.ActivePreset)
	}

	if len(cfg.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(cfg.Routes))
	}
	route := cfg.Routes[0]
	if route.PathPattern != "/api/orders/**" || !route.RouteEnabled() || route.Priority != 5 {
		t.Errorf("unexpected route %+v", route)
	}

	if len(cfg.Presets) != 2 {
		t.Fatalf("expected 2 presets, got %d", len(cfg.Presets))
	}
	dev := cfg.Presets[0]
	if dev.Headers["X-User-Id"] != "dev-1" {
		t.Errorf("unexpected preset headers %v", dev.Headers)
	}
	if dev.HeaderMappings["Authorization"] != "X-Original-Authorization" {
		t.Errorf("unexpected header mappings %v", dev.HeaderMappings)
	}
	if !dev.OIDCEnabled() {
		t.Error("developer preset should have OIDC enabled")
	}
	if cfg.Presets[1].OIDCEnabled() {
		t.Error("anonymous preset should not have OIDC enabled")
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Proxy.Timeout != DefaultProxyTimeout {
		t.Errorf("expected default proxy timeout, got %v", cfg.Proxy.Timeout)
	}
	if len(cfg.ReservedPrefixes) == 0 {
		t.Error("expected default reserved prefixes")
	}
	if cfg.OIDC.DefaultExpiry != DefaultTokenExpirySeconds {
		t.Errorf("expected default expiry, got %d", cfg.OIDC.DefaultExpiry)
	}

	persona := cfg.Presets[0].OIDC
	if persona.TokenExpirationSeconds != DefaultTokenExpirySeconds {
		t.Errorf("expected default token expiration, got %d", persona.TokenExpirationSeconds)
	}
	if persona.Algorithm != DefaultAlgorithm {
		t.Errorf("expected default algorithm, got %q", persona.Algorithm)
	}
	if persona.KeyID != DefaultKeyID {
		t.Errorf("expected default key ID, got %q", persona.KeyID)
	}
	if len(persona.Scopes) == 0 {
		t.Error("expected default scopes on persona")
	}
}

func TestParseConfigDefaultsRoutes(t *testing.T) {
	doc := `
downstream:
  url: "http://localhost:3000"
routes:
  - path_pattern: "/api/orders/**"
    target_url: "http://localhost:9001"
  - path_pattern: "/api/legacy/**"
    target_url: "http://localhost:9002"
    enabled: false
`
	cfg, err := ParseConfig([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.Routes[0].RouteEnabled() {
		t.Error("route omitting enabled should default to enabled")
	}
	if cfg.Routes[0].Priority != DefaultRoutePriority {
		t.Errorf("expected default priority %d, got %d", DefaultRoutePriority, cfg.Routes[0].Priority)
	}
	if cfg.Routes[1].RouteEnabled() {
		t.Error("explicitly disabled route should stay disabled")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseConfigRejectsInvalidYAML(t *testing.T) {
	if _, err := ParseConfig([]byte("server: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseConfigRejectsInvalidDocument(t *testing.T) {
	doc := `
downstream:
  url: "ftp://wrong-scheme"
`
	if _, err := ParseConfig([]byte(doc)); err == nil {
		t.Fatal("expected validation error for bad downstream URL")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("PROXIMA_DOWNSTREAM_URL", "http://localhost:4000")
	t.Setenv("PROXIMA_ACTIVE_PRESET", "anonymous")
	t.Setenv("PROXIMA_PROXY_TIMEOUT", "45s")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Downstream.URL != "http://localhost:4000" {
		t.Errorf("env override should win, got %q", cfg.Downstream.URL)
	}
	if cfg.ActivePreset != "anonymous" {
		t.Errorf("env override should win, got %q", cfg.ActivePreset)
	}
	if cfg.Proxy.Timeout != 45*time.Second {
		t.Errorf("env override should win, got %v", cfg.Proxy.Timeout)
	}
}
