package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/FreeSideNomad/proxima/pkg/config"
	"github.com/FreeSideNomad/proxima/pkg/oidc/codes"
	"github.com/FreeSideNomad/proxima/pkg/oidc/tokens"
	"github.com/FreeSideNomad/proxima/pkg/telemetry/metrics"
)

// Flow serves the OAuth2 authorization code flow: the authorize endpoint
// issues single-use codes without any login UI, and the token endpoint
// exchanges them for the persona's cached token set.
type Flow struct {
	store   *config.Store
	ledger  *codes.Ledger
	cache   *tokens.Cache
	metrics *metrics.OIDCMetrics
	logger  *slog.Logger
}

// NewFlow creates the authorization flow handler. om may be nil.
func NewFlow(store *config.Store, ledger *codes.Ledger, cache *tokens.Cache, om *metrics.OIDCMetrics) *Flow {
	return &Flow{
		store:   store,
		ledger:  ledger,
		cache:   cache,
		metrics: om,
		logger:  slog.Default().With("component", "oidc.flow"),
	}
}

// Register mounts the flow endpoints on mux.
func (f *Flow) Register(mux *http.ServeMux) {
	mux.HandleFunc("/oauth2/authorize", f.Authorize)
	mux.HandleFunc("/oauth2/token", f.Token)
}

// Authorize handles GET /oauth2/authorize. The client_id selects the
// persona; there is no credential prompt. On success the browser is
// redirected back to redirect_uri with a fresh authorization code.
func (f *Flow) Authorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	responseType := q.Get("response_type")
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	scope := q.Get("scope")
	state := q.Get("state")
	nonce := q.Get("nonce")

	if responseType != "code" {
		f.authorizeError(w, redirectURI, state, "unsupported_response_type",
			"only response_type=code is supported")
		return
	}

	preset := f.store.PresetByClientID(clientID)
	if preset == nil {
		f.logger.Warn("authorization request for unknown client", "client_id", clientID)
		f.authorizeError(w, redirectURI, state, "invalid_client", "unknown client_id")
		return
	}

	persona := preset.OIDC
	if redirectURI != persona.RedirectURI {
		f.logger.Warn("redirect URI rejected",
			"client_id", clientID,
			"redirect_uri", redirectURI,
		)
		f.authorizeError(w, redirectURI, state, "invalid_redirect_uri",
			"redirect_uri does not match the registered value")
		return
	}

	if scope == "" {
		scope = "openid"
	}

	code := f.ledger.Generate(clientID, redirectURI, scope, state, nonce, persona.Subject)
	f.metrics.RecordCodeIssued(clientID)

	params := url.Values{}
	params.Set("code", code.Code)
	if state != "" {
		params.Set("state", state)
	}

	f.logger.Info("authorization code issued",
		"client_id", clientID,
		"preset", preset.Name,
		"scope", scope,
	)
	http.Redirect(w, r, redirectURI+"?"+params.Encode(), http.StatusFound)
}

// authorizeError reports an authorization failure. When a redirect target
// is available the error travels back on the redirect per RFC 6749;
// otherwise it is returned as a JSON body.
func (f *Flow) authorizeError(w http.ResponseWriter, redirectURI, state, code, description string) {
	if redirectURI == "" {
		writeOAuthError(w, http.StatusBadRequest, code, description)
		return
	}

	params := url.Values{}
	params.Set("error", code)
	params.Set("error_description", description)
	if state != "" {
		params.Set("state", state)
	}

	w.Header().Set("Location", redirectURI+"?"+params.Encode())
	w.WriteHeader(http.StatusFound)
}

// tokenResponse is the token endpoint success body.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Token handles POST /oauth2/token. It consumes the authorization code and
// returns the persona's token set. The scope in the response is the one
// granted at authorization time, not the cached set's full scope.
func (f *Flow) Token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	grantType := r.PostFormValue("grant_type")
	code := r.PostFormValue("code")
	clientID := r.PostFormValue("client_id")
	redirectURI := r.PostFormValue("redirect_uri")

	if grantType != "authorization_code" {
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type",
			"only grant_type=authorization_code is supported")
		return
	}
	if code == "" {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	consumed, err := f.ledger.ValidateAndConsume(code, clientID, redirectURI)
	if err != nil {
		f.logger.Warn("code exchange rejected", "client_id", clientID, "error", err)
		f.metrics.RecordTokenExchange("invalid_grant")
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", err.Error())
		return
	}

	preset := f.store.PresetByClientID(clientID)
	if preset == nil {
		// The preset disappeared between authorize and exchange.
		f.metrics.RecordTokenExchange("invalid_client")
		writeOAuthError(w, http.StatusBadRequest, "invalid_client", "unknown client_id")
		return
	}

	set, err := f.cache.ValidTokens(preset.Name)
	if err != nil {
		if errors.Is(err, tokens.ErrPresetNotFound) || errors.Is(err, tokens.ErrOIDCDisabled) {
			f.metrics.RecordTokenExchange("invalid_client")
			writeOAuthError(w, http.StatusBadRequest, "invalid_client", err.Error())
			return
		}
		f.logger.Error("token minting failed", "preset", preset.Name, "error", err)
		f.metrics.RecordTokenExchange("server_error")
		writeOAuthError(w, http.StatusInternalServerError, "server_error",
			"failed to issue tokens")
		return
	}

	scope := strings.TrimSpace(consumed.Scope)
	if scope == "" {
		scope = set.Scope
	}

	f.logger.Info("token exchange completed", "client_id", clientID, "preset", preset.Name)
	f.metrics.RecordTokenExchange("success")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  set.AccessToken,
		IDToken:      set.IDToken,
		TokenType:    set.TokenType,
		ExpiresIn:    set.ExpiresIn,
		Scope:        scope,
		RefreshToken: set.RefreshToken,
	})
}
