package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FreeSideNomad/proxima/pkg/config"
	"github.com/FreeSideNomad/proxima/pkg/oidc/keystore"
)

// JWTAdmin serves the key and token management API under /proxima/api/jwt.
// It lets developers mint ad-hoc tokens and manage signing keys at runtime
// without restarting the proxy.
type JWTAdmin struct {
	keys   *keystore.Store
	logger *slog.Logger
}

// NewJWTAdmin creates the JWT admin handler.
func NewJWTAdmin(keys *keystore.Store) *JWTAdmin {
	return &JWTAdmin{
		keys:   keys,
		logger: slog.Default().With("component", "oidc.jwtadmin"),
	}
}

// Prefix is where the JWT admin API is mounted.
const jwtAdminPrefix = "/proxima/api/jwt/"

// Register mounts the admin API on mux.
func (h *JWTAdmin) Register(mux *http.ServeMux) {
	mux.HandleFunc(jwtAdminPrefix, h.route)
}

// route dispatches on the path below the mount prefix.
func (h *JWTAdmin) route(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, jwtAdminPrefix)

	switch {
	case rest == "tokens":
		h.mintToken(w, r)
	case rest == "keys":
		h.listKeys(w, r)
	case rest == "keys/hmac":
		h.generateHMACKey(w, r)
	case rest == "keys/rsa":
		h.generateRSAKey(w, r)
	case strings.HasPrefix(rest, "keys/") && strings.HasSuffix(rest, "/public"):
		keyID := strings.TrimSuffix(strings.TrimPrefix(rest, "keys/"), "/public")
		h.publicKey(w, r, keyID)
	case strings.HasPrefix(rest, "keys/"):
		h.deleteKey(w, r, strings.TrimPrefix(rest, "keys/"))
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// mintTokenRequest is the body of POST /proxima/api/jwt/tokens.
type mintTokenRequest struct {
	Subject   string         `json:"subject"`
	Claims    map[string]any `json:"claims"`
	ExpiresIn int64          `json:"expiresIn"`
	Algorithm string         `json:"algorithm"`
	KeyID     string         `json:"keyId"`
}

// mintTokenResponse echoes the signing parameters alongside the token.
type mintTokenResponse struct {
	Token     string         `json:"token"`
	Subject   string         `json:"subject"`
	Algorithm string         `json:"algorithm"`
	KeyID     string         `json:"keyId"`
	ExpiresIn int64          `json:"expiresIn"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Claims    map[string]any `json:"claims"`
}

func (h *JWTAdmin) mintToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req mintTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Subject == "" {
		writeError(w, http.StatusBadRequest, "subject is required")
		return
	}
	if req.Algorithm == "" {
		req.Algorithm = config.DefaultAlgorithm
	}
	if req.KeyID == "" {
		req.KeyID = keystore.DefaultKeyID
	}
	if req.ExpiresIn <= 0 {
		req.ExpiresIn = config.DefaultTokenExpirySeconds
	}

	expiry := time.Duration(req.ExpiresIn) * time.Second
	token, err := h.keys.Sign(req.Subject, req.Claims, expiry, req.Algorithm, req.KeyID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, keystore.ErrKeyNotFound) || errors.Is(err, keystore.ErrUnsupportedAlgorithm) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	h.logger.Info("minted ad-hoc token",
		"subject", req.Subject,
		"algorithm", req.Algorithm,
		"key_id", req.KeyID,
	)
	writeJSON(w, http.StatusOK, mintTokenResponse{
		Token:     token,
		Subject:   req.Subject,
		Algorithm: req.Algorithm,
		KeyID:     req.KeyID,
		ExpiresIn: req.ExpiresIn,
		ExpiresAt: time.Now().Add(expiry),
		Claims:    req.Claims,
	})
}

// keyRequest is the body of the key generation endpoints.
type keyRequest struct {
	KeyID string `json:"keyId"`
}

func (h *JWTAdmin) decodeKeyRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}

	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if req.KeyID == "" {
		writeError(w, http.StatusBadRequest, "keyId is required")
		return "", false
	}
	if h.keys.KeyExists(req.KeyID) {
		writeError(w, http.StatusConflict, "Key ID already exists: "+req.KeyID)
		return "", false
	}
	return req.KeyID, true
}

func (h *JWTAdmin) generateHMACKey(w http.ResponseWriter, r *http.Request) {
	keyID, ok := h.decodeKeyRequest(w, r)
	if !ok {
		return
	}

	secret, err := h.keys.GenerateHMACKey(keyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("generated HMAC key", "key_id", keyID)
	writeJSON(w, http.StatusOK, map[string]string{
		"keyId":     keyID,
		"algorithm": "HS256",
		"secret":    secret,
	})
}

func (h *JWTAdmin) generateRSAKey(w http.ResponseWriter, r *http.Request) {
	keyID, ok := h.decodeKeyRequest(w, r)
	if !ok {
		return
	}

	pair, err := h.keys.GenerateRSAKeyPair(keyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("generated RSA key pair", "key_id", keyID)
	writeJSON(w, http.StatusOK, pair)
}

func (h *JWTAdmin) listKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.keys.Info())
}

func (h *JWTAdmin) publicKey(w http.ResponseWriter, r *http.Request, keyID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pemText, err := h.keys.PublicKeyPEM(keyID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, keystore.ErrKeyNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"keyId":     keyID,
		"publicKey": pemText,
	})
}

func (h *JWTAdmin) deleteKey(w http.ResponseWriter, r *http.Request, keyID string) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.keys.DeleteKey(keyID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, keystore.ErrKeyNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	h.logger.Info("deleted key", "key_id", keyID)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Key deleted: " + keyID,
	})
}
