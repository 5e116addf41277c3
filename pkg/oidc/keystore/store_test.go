package keystore

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("failed to create key store: %v", err)
	}
	return s
}

func TestNewGeneratesDefaultKeys(t *testing.T) {
	s := newStore(t)

	if !s.KeyExists(DefaultKeyID) {
		t.Fatal("expected default keys to exist")
	}

	info := s.Info()
	if len(info.HMACKeys) != 1 || info.HMACKeys[0] != DefaultKeyID {
		t.Errorf("expected one default HMAC key, got %v", info.HMACKeys)
	}
	if len(info.RSAKeys) != 1 || info.RSAKeys[0] != DefaultKeyID {
		t.Errorf("expected one default RSA key, got %v", info.RSAKeys)
	}
	if info.TotalKeys != 2 {
		t.Errorf("expected 2 total keys, got %d", info.TotalKeys)
	}
}

func TestSignHS256RoundTrip(t *testing.T) {
	s := newStore(t)

	secret, err := s.GenerateHMACKey("test-key")
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	rawSecret, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		t.Fatalf("secret is not base64: %v", err)
	}

	token, err := s.Sign("user-1", map[string]any{"role": "admin"}, time.Hour, "HS256", "test-key")
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return rawSecret, nil
	})
	if err != nil {
		t.Fatalf("verification failed: %v", err)
	}

	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != "user-1" {
		t.Errorf("expected subject claim, got %v", claims["sub"])
	}
	if claims["role"] != "admin" {
		t.Errorf("expected custom claim, got %v", claims["role"])
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("missing exp claim: %v", err)
	}
	if until := time.Until(exp.Time); until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("unexpected expiry horizon %v", until)
	}
}

func TestSignRS256RoundTrip(t *testing.T) {
	s := newStore(t)

	token, err := s.Sign("user-1", nil, time.Hour, "RS256", DefaultKeyID)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	pemText, err := s.PublicKeyPEM(DefaultKeyID)
	if err != nil {
		t.Fatalf("failed to export public key: %v", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemText))
	if err != nil {
		t.Fatalf("exported PEM does not parse: %v", err)
	}

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return publicKey, nil
	})
	if err != nil {
		t.Fatalf("verification failed: %v", err)
	}

	if kid := parsed.Header["kid"]; kid != DefaultKeyID {
		t.Errorf("expected kid header %q, got %v", DefaultKeyID, kid)
	}
}

func TestSignCallerClaimsWin(t *testing.T) {
	s := newStore(t)

	token, err := s.Sign("original-subject", map[string]any{"sub": "override"}, time.Hour, "HS256", DefaultKeyID)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims["sub"] != "override" {
		t.Errorf("caller claim should win over the subject argument, got %v", claims["sub"])
	}
}

func TestSignErrors(t *testing.T) {
	s := newStore(t)

	if _, err := s.Sign("u", nil, time.Hour, "HS256", "nosuch"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
	if _, err := s.Sign("u", nil, time.Hour, "RS256", "nosuch"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
	if _, err := s.Sign("u", nil, time.Hour, "ES256", DefaultKeyID); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestGenerateHMACKeySilentReplace(t *testing.T) {
	s := newStore(t)

	first, err := s.GenerateHMACKey("dup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.GenerateHMACKey("dup")
	if err != nil {
		t.Fatalf("regeneration under an existing ID should succeed, got %v", err)
	}
	if first == second {
		t.Error("regenerated key should differ from the original")
	}
}

func TestGenerateRSAKeyPair(t *testing.T) {
	s := newStore(t)

	pair, err := s.GenerateRSAKeyPair("signing-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.KeyID != "signing-2" || pair.Algorithm != "RS256" {
		t.Errorf("unexpected pair metadata: %+v", pair)
	}
	if pair.PublicKey == "" || pair.PrivateKey == "" {
		t.Error("expected both key halves in the result")
	}
	if !s.KeyExists("signing-2") {
		t.Error("generated key should be stored")
	}
}

func TestDeleteKey(t *testing.T) {
	s := newStore(t)

	if _, err := s.GenerateHMACKey("doomed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.DeleteKey("doomed"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if s.KeyExists("doomed") {
		t.Error("key should be gone")
	}

	if err := s.DeleteKey("doomed"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound on second delete, got %v", err)
	}
}

func TestDeleteDefaultKeyRegenerates(t *testing.T) {
	s := newStore(t)

	before, err := s.PublicKeyPEM(DefaultKeyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.DeleteKey(DefaultKeyID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if !s.KeyExists(DefaultKeyID) {
		t.Fatal("default key should be regenerated immediately")
	}
	after, err := s.PublicKeyPEM(DefaultKeyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if before == after {
		t.Error("regenerated default key should differ")
	}
}

func TestJWKS(t *testing.T) {
	s := newStore(t)

	if _, err := s.GenerateRSAKeyPair("extra"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.GenerateHMACKey("secret-key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	jwks := s.JWKS()
	if len(jwks.Keys) != 2 {
		t.Fatalf("expected 2 RSA keys in JWKS, got %d", len(jwks.Keys))
	}

	// Sorted by kid: "default" before "extra".
	if jwks.Keys[0].Kid != "default" || jwks.Keys[1].Kid != "extra" {
		t.Errorf("expected sorted kids, got %s, %s", jwks.Keys[0].Kid, jwks.Keys[1].Kid)
	}

	for _, key := range jwks.Keys {
		if key.Kty != "RSA" || key.Use != "sig" || key.Alg != "RS256" {
			t.Errorf("unexpected JWK attributes: %+v", key)
		}

		nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			t.Fatalf("modulus is not base64url: %v", err)
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil {
			t.Fatalf("exponent is not base64url: %v", err)
		}

		pemText, err := s.PublicKeyPEM(key.Kid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemText))
		if err != nil {
			t.Fatalf("PEM does not parse: %v", err)
		}
		if err := compareRSA(publicKey, nBytes, eBytes); err != nil {
			t.Errorf("JWK %s does not match PEM: %v", key.Kid, err)
		}
	}
}

func compareRSA(key *rsa.PublicKey, n, e []byte) error {
	if key.N.Cmp(new(big.Int).SetBytes(n)) != 0 {
		return errors.New("modulus mismatch")
	}
	if big.NewInt(int64(key.E)).Cmp(new(big.Int).SetBytes(e)) != 0 {
		return errors.New("exponent mismatch")
	}
	return nil
}

func TestTokenFormat(t *testing.T) {
	s := newStore(t)

	token, err := s.Sign("u", nil, time.Minute, "HS256", DefaultKeyID)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("expected compact JWS with 3 segments, got %d", len(parts))
	}
}
