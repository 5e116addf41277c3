package handlers

import (
	"net/http"

	"github.com/FreeSideNomad/proxima/pkg/config"
	"github.com/FreeSideNomad/proxima/pkg/oidc/keystore"
)

// Discovery serves the OpenID Connect provider metadata and the JWKS
// document clients need to verify RS256 tokens.
type Discovery struct {
	store *config.Store
	keys  *keystore.Store
}

// NewDiscovery creates the discovery handler.
func NewDiscovery(store *config.Store, keys *keystore.Store) *Discovery {
	return &Discovery{store: store, keys: keys}
}

// Register mounts the well-known endpoints on mux.
func (d *Discovery) Register(mux *http.ServeMux) {
	mux.HandleFunc("/.well-known/openid-configuration", d.Configuration)
	mux.HandleFunc("/.well-known/jwks.json", d.JWKS)
}

// providerMetadata is the discovery document shape.
type providerMetadata struct {
	Issuer                           string   `json:"issuer"`
	AuthorizationEndpoint            string   `json:"authorization_endpoint"`
	TokenEndpoint                    string   `json:"token_endpoint"`
	JWKSURI                          string   `json:"jwks_uri"`
	ResponseTypesSupported           []string `json:"response_types_supported"`
	ResponseModesSupported           []string `json:"response_modes_supported"`
	GrantTypesSupported              []string `json:"grant_types_supported"`
	SubjectTypesSupported            []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported"`
	ScopesSupported                  []string `json:"scopes_supported"`
	ClaimsSupported                  []string `json:"claims_supported"`
	TokenEndpointAuthMethods         []string `json:"token_endpoint_auth_methods_supported"`
	CodeChallengeMethodsSupported    []string `json:"code_challenge_methods_supported"`
}

// issuer resolves the issuer URL advertised by the provider. The
// configured value wins; otherwise it is derived from the request host.
func (d *Discovery) issuer(r *http.Request) string {
	if iss := d.store.Snapshot().OIDC.Issuer; iss != "" {
		return iss
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// Configuration handles GET /.well-known/openid-configuration.
func (d *Discovery) Configuration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	issuer := d.issuer(r)
	scopes := d.store.Snapshot().OIDC.SupportedScopes
	if len(scopes) == 0 {
		scopes = config.DefaultScopes()
	}

	writeJSON(w, http.StatusOK, providerMetadata{
		Issuer:                           issuer,
		AuthorizationEndpoint:            issuer + "/oauth2/authorize",
		TokenEndpoint:                    issuer + "/oauth2/token",
		JWKSURI:                          issuer + "/.well-known/jwks.json",
		ResponseTypesSupported:           []string{"code"},
		ResponseModesSupported:           []string{"query"},
		GrantTypesSupported:              []string{"authorization_code"},
		SubjectTypesSupported:            []string{"public"},
		IDTokenSigningAlgValuesSupported: []string{"RS256"},
		ScopesSupported:                  scopes,
		ClaimsSupported: []string{
			"sub", "iss", "aud", "exp", "iat",
			"email", "name", "preferred_username", "groups",
		},
		TokenEndpointAuthMethods:      []string{"client_secret_post", "none"},
		CodeChallengeMethodsSupported: []string{"S256", "plain"},
	})
}

// JWKS handles GET /.well-known/jwks.json. Only RSA public keys appear;
// HMAC secrets are never published.
func (d *Discovery) JWKS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, d.keys.JWKS())
}
