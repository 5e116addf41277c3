package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FreeSideNomad/proxima/pkg/config"
	"github.com/FreeSideNomad/proxima/pkg/oidc/keystore"
)

func TestConfiguration(t *testing.T) {
	store := config.NewStaticStore(&config.Config{
		OIDC: config.OIDCConfig{
			Issuer:          "http://localhost:9999",
			SupportedScopes: []string{"openid", "email"},
		},
	})
	keys, err := keystore.New()
	if err != nil {
		t.Fatalf("failed to create key store: %v", err)
	}

	rec := httptest.NewRecorder()
	NewDiscovery(store, keys).Configuration(rec,
		httptest.NewRequest(http.MethodGet, "/.well-known/openid-configuration", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var doc providerMetadata
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("bad discovery document: %v", err)
	}
	if doc.Issuer != "http://localhost:9999" {
		t.Errorf("expected configured issuer, got %q", doc.Issuer)
	}
	if doc.AuthorizationEndpoint != "http://localhost:9999/oauth2/authorize" {
		t.Errorf("unexpected authorization endpoint %q", doc.AuthorizationEndpoint)
	}
	if doc.TokenEndpoint != "http://localhost:9999/oauth2/token" {
		t.Errorf("unexpected token endpoint %q", doc.TokenEndpoint)
	}
	if doc.JWKSURI != "http://localhost:9999/.well-known/jwks.json" {
		t.Errorf("unexpected JWKS URI %q", doc.JWKSURI)
	}
	if len(doc.ScopesSupported) != 2 || doc.ScopesSupported[1] != "email" {
		t.Errorf("expected configured scopes, got %v", doc.ScopesSupported)
	}
}

func TestConfigurationDerivesIssuerFromHost(t *testing.T) {
	store := config.NewStaticStore(&config.Config{})
	keys, err := keystore.New()
	if err != nil {
		t.Fatalf("failed to create key store: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/.well-known/openid-configuration", nil)
	req.Host = "proxy.local:8080"
	rec := httptest.NewRecorder()
	NewDiscovery(store, keys).Configuration(rec, req)

	var doc providerMetadata
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("bad discovery document: %v", err)
	}
	if doc.Issuer != "http://proxy.local:8080" {
		t.Errorf("expected host-derived issuer, got %q", doc.Issuer)
	}
}

func TestJWKSEndpoint(t *testing.T) {
	store := config.NewStaticStore(&config.Config{})
	keys, err := keystore.New()
	if err != nil {
		t.Fatalf("failed to create key store: %v", err)
	}

	rec := httptest.NewRecorder()
	NewDiscovery(store, keys).JWKS(rec,
		httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var doc struct {
		Keys []map[string]string `json:"keys"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("bad JWKS document: %v", err)
	}
	if len(doc.Keys) != 1 {
		t.Fatalf("expected the default RSA key, got %d keys", len(doc.Keys))
	}
	key := doc.Keys[0]
	if key["kty"] != "RSA" || key["alg"] != "RS256" || key["use"] != "sig" {
		t.Errorf("unexpected JWK attributes: %v", key)
	}
	if key["n"] == "" || key["e"] == "" {
		t.Error("expected modulus and exponent on the JWK")
	}
}
