package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/FreeSideNomad/proxima/pkg/config"
	"github.com/FreeSideNomad/proxima/pkg/oidc/codes"
	"github.com/FreeSideNomad/proxima/pkg/oidc/keystore"
	"github.com/FreeSideNomad/proxima/pkg/oidc/tokens"
)

func newTestFlow(t *testing.T) *Flow {
	t.Helper()

	store := config.NewStaticStore(&config.Config{
		OIDC: config.OIDCConfig{Issuer: "http://localhost:8080"},
		Presets: []config.Preset{
			{
				Name: "developer",
				OIDC: &config.Persona{
					Enabled:     true,
					Subject:     "dev-user-1",
					Email:       "dev@example.com",
					Scopes:      []string{"openid", "profile"},
					ClientID:    "dev-client",
					RedirectURI: "http://localhost:3000/callback",
					Algorithm:   "HS256",
				},
			},
		},
	})

	keys, err := keystore.New()
	if err != nil {
		t.Fatalf("failed to create key store: %v", err)
	}

	return NewFlow(store, codes.NewLedger(), tokens.NewCache(keys, store), nil)
}

func authorize(t *testing.T, flow *Flow, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/oauth2/authorize?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	flow.Authorize(rec, req)
	return rec
}

func TestAuthorizeIssuesCode(t *testing.T) {
	flow := newTestFlow(t)

	rec := authorize(t, flow, url.Values{
		"response_type": {"code"},
		"client_id":     {"dev-client"},
		"redirect_uri":  {"http://localhost:3000/callback"},
		"scope":         {"openid profile"},
		"state":         {"xyz-123"},
	})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}

	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location header: %v", err)
	}
	if got := location.Host; got != "localhost:3000" {
		t.Errorf("redirect should target the registered callback, got %q", got)
	}
	if code := location.Query().Get("code"); code == "" {
		t.Error("expected code parameter on redirect")
	}
	if state := location.Query().Get("state"); state != "xyz-123" {
		t.Errorf("state should round-trip, got %q", state)
	}
}

func TestAuthorizeUnknownClient(t *testing.T) {
	flow := newTestFlow(t)

	rec := authorize(t, flow, url.Values{
		"response_type": {"code"},
		"client_id":     {"nosuch-client"},
		"redirect_uri":  {"http://localhost:3000/callback"},
		"state":         {"s2"},
	})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected error redirect, got %d", rec.Code)
	}
	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location header: %v", err)
	}
	if got := location.Query().Get("error"); got != "invalid_client" {
		t.Errorf("expected invalid_client on redirect, got %q", got)
	}
	if got := location.Query().Get("state"); got != "s2" {
		t.Errorf("state should round-trip on error redirect, got %q", got)
	}
	if location.Query().Get("code") != "" {
		t.Error("no code should be issued for an unknown client")
	}
}

func TestAuthorizeRedirectMismatch(t *testing.T) {
	flow := newTestFlow(t)

	rec := authorize(t, flow, url.Values{
		"response_type": {"code"},
		"client_id":     {"dev-client"},
		"redirect_uri":  {"http://evil.example/callback"},
	})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected error redirect, got %d", rec.Code)
	}
	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location header: %v", err)
	}
	if got := location.Query().Get("error"); got != "invalid_redirect_uri" {
		t.Errorf("expected invalid_redirect_uri on redirect, got %q", got)
	}
	if location.Query().Get("code") != "" {
		t.Error("no code should be issued on a redirect mismatch")
	}
}

func TestAuthorizeErrorFallsBackToJSON(t *testing.T) {
	flow := newTestFlow(t)

	rec := authorize(t, flow, url.Values{
		"response_type": {"code"},
		"client_id":     {"dev-client"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when no redirect target exists, got %d", rec.Code)
	}
	var body oauthError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	if body.Error != "invalid_redirect_uri" {
		t.Errorf("expected invalid_redirect_uri, got %q", body.Error)
	}
}

func TestAuthorizeUnsupportedResponseType(t *testing.T) {
	flow := newTestFlow(t)

	rec := authorize(t, flow, url.Values{
		"response_type": {"token"},
		"client_id":     {"dev-client"},
		"redirect_uri":  {"http://localhost:3000/callback"},
		"state":         {"s1"},
	})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected error redirect, got %d", rec.Code)
	}
	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location header: %v", err)
	}
	if got := location.Query().Get("error"); got != "unsupported_response_type" {
		t.Errorf("expected unsupported_response_type on redirect, got %q", got)
	}
	if got := location.Query().Get("state"); got != "s1" {
		t.Errorf("state should round-trip on error redirect, got %q", got)
	}
}

func exchangeCode(t *testing.T, flow *Flow, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/oauth2/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	flow.Token(rec, req)
	return rec
}

func TestTokenExchange(t *testing.T) {
	flow := newTestFlow(t)

	rec := authorize(t, flow, url.Values{
		"response_type": {"code"},
		"client_id":     {"dev-client"},
		"redirect_uri":  {"http://localhost:3000/callback"},
		"scope":         {"openid profile"},
	})
	if rec.Code != http.StatusFound {
		t.Fatalf("authorize failed: %d", rec.Code)
	}
	location, _ := url.Parse(rec.Header().Get("Location"))
	code := location.Query().Get("code")

	rec = exchangeCode(t, flow, url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"client_id":    {"dev-client"},
		"redirect_uri": {"http://localhost:3000/callback"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad token response: %v", err)
	}
	if body.AccessToken == "" || body.IDToken == "" {
		t.Fatal("expected both tokens in response")
	}
	if parts := strings.Split(body.IDToken, "."); len(parts) != 3 {
		t.Errorf("ID token should be a compact JWT, got %d segments", len(parts))
	}
	if body.TokenType != "Bearer" {
		t.Errorf("expected token type Bearer, got %q", body.TokenType)
	}
	if body.Scope != "openid profile" {
		t.Errorf("expected granted scope, got %q", body.Scope)
	}
	if body.ExpiresIn <= 0 {
		t.Errorf("expected positive expires_in, got %d", body.ExpiresIn)
	}
}

func TestTokenExchangeSingleUse(t *testing.T) {
	flow := newTestFlow(t)

	rec := authorize(t, flow, url.Values{
		"response_type": {"code"},
		"client_id":     {"dev-client"},
		"redirect_uri":  {"http://localhost:3000/callback"},
	})
	location, _ := url.Parse(rec.Header().Get("Location"))
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {location.Query().Get("code")},
		"client_id":    {"dev-client"},
		"redirect_uri": {"http://localhost:3000/callback"},
	}

	if rec := exchangeCode(t, flow, form); rec.Code != http.StatusOK {
		t.Fatalf("first exchange failed: %d", rec.Code)
	}

	rec = exchangeCode(t, flow, form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on replay, got %d", rec.Code)
	}
	var body oauthError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	if body.Error != "invalid_grant" {
		t.Errorf("expected invalid_grant, got %q", body.Error)
	}
}

func TestTokenExchangeBadGrantType(t *testing.T) {
	flow := newTestFlow(t)

	rec := exchangeCode(t, flow, url.Values{
		"grant_type": {"client_credentials"},
		"code":       {"whatever"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body oauthError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	if body.Error != "unsupported_grant_type" {
		t.Errorf("expected unsupported_grant_type, got %q", body.Error)
	}
}

func TestTokenExchangeUnknownCode(t *testing.T) {
	flow := newTestFlow(t)

	rec := exchangeCode(t, flow, url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {"nosuchcode"},
		"client_id":    {"dev-client"},
		"redirect_uri": {"http://localhost:3000/callback"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body oauthError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	if body.Error != "invalid_grant" {
		t.Errorf("expected invalid_grant, got %q", body.Error)
	}
}
