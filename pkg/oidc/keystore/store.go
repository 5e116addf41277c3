package keystore

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultKeyID is the identifier of the always-present default keys.
	DefaultKeyID = "default"

	// hmacKeySize is the secret length for generated HS256 keys.
	hmacKeySize = 32

	// rsaKeyBits is the modulus size for generated RSA key pairs.
	rsaKeyBits = 2048
)

// Store owns the HMAC secrets and RSA key pairs used to sign tokens. A
// "default" key of each kind always exists: it is generated on first use
// and regenerated immediately when deleted. Deleting any key invalidates
// tokens previously signed with it.
//
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	hmacKeys map[string][]byte
	rsaKeys  map[string]*rsa.PrivateKey
	logger   *slog.Logger
}

// New creates a key store with freshly generated default HMAC and RSA keys.
func New() (*Store, error) {
	s := &Store{
		hmacKeys: make(map[string][]byte),
		rsaKeys:  make(map[string]*rsa.PrivateKey),
		logger:   slog.Default().With("component", "oidc.keystore"),
	}

	if err := s.generateDefaults(); err != nil {
		return nil, fmt.Errorf("failed to initialize key store: %w", err)
	}

	s.logger.Info("key store initialized with default HMAC and RSA keys")
	return s, nil
}

// generateDefaults installs fresh material under the "default" identifier
// for both key kinds. Callers must hold the write lock or have exclusive
// access.
func (s *Store) generateDefaults() error {
	secret := make([]byte, hmacKeySize)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("failed to generate default HMAC key: %w", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return fmt.Errorf("failed to generate default RSA key pair: %w", err)
	}

	s.hmacKeys[DefaultKeyID] = secret
	s.rsaKeys[DefaultKeyID] = key
	return nil
}

// Sign produces a signed JWT for the subject with the given claims. The
// registered claims sub, iat, and exp are set from the arguments; entries
// in claims override them, so callers supplying fully built claim sets
// (issuer, audience, expiry) win. The kid header is set for RS256 tokens.
func (s *Store) Sign(subject string, claims map[string]any, expiry time.Duration, algorithm, keyID string) (string, error) {
	now := time.Now()

	mc := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(expiry).Unix(),
	}
	for k, v := range claims {
		mc[k] = v
	}

	switch strings.ToUpper(algorithm) {
	case "HS256":
		s.mu.RLock()
		secret, ok := s.hmacKeys[keyID]
		s.mu.RUnlock()
		if !ok {
			return "", &KeyNotFoundError{KeyID: keyID, Kind: "HMAC"}
		}
		return jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(secret)

	case "RS256":
		s.mu.RLock()
		key, ok := s.rsaKeys[keyID]
		s.mu.RUnlock()
		if !ok {
			return "", &KeyNotFoundError{KeyID: keyID, Kind: "RSA"}
		}
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, mc)
		token.Header["kid"] = keyID
		return token.SignedString(key)

	default:
		return "", &UnsupportedAlgorithmError{Algorithm: algorithm}
	}
}

// GenerateHMACKey creates a fresh HMAC secret under the given identifier,
// silently replacing any existing one, and returns the secret base64
// encoded for out-of-band verification tooling.
func (s *Store) GenerateHMACKey(keyID string) (string, error) {
	secret := make([]byte, hmacKeySize)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to generate HMAC key: %w", err)
	}

	s.mu.Lock()
	s.hmacKeys[keyID] = secret
	s.mu.Unlock()

	s.logger.Info("generated HMAC key", "key_id", keyID)
	return base64.StdEncoding.EncodeToString(secret), nil
}

// RSAKeyPair carries the exportable material of a generated RSA key pair.
type RSAKeyPair struct {
	KeyID      string `json:"keyId"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
	Algorithm  string `json:"algorithm"`
}

// GenerateRSAKeyPair creates a fresh 2048-bit RSA key pair under the given
// identifier, silently replacing any existing one. Both halves are returned
// base64 encoded (PKIX public key, PKCS#8 private key).
func (s *Store) GenerateRSAKeyPair(keyID string) (*RSAKeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}

	s.mu.Lock()
	s.rsaKeys[keyID] = key
	s.mu.Unlock()

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode RSA public key: %w", err)
	}
	priv, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode RSA private key: %w", err)
	}

	s.logger.Info("generated RSA key pair", "key_id", keyID)
	return &RSAKeyPair{
		KeyID:      keyID,
		PublicKey:  base64.StdEncoding.EncodeToString(pub),
		PrivateKey: base64.StdEncoding.EncodeToString(priv),
		Algorithm:  "RS256",
	}, nil
}

// DeleteKey removes the key(s) stored under an identifier from both
// keyspaces. Deleting "default" immediately regenerates fresh default
// material, so the default identifier always resolves; tokens signed under
// the old default become unverifiable.
func (s *Store) DeleteKey(keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, hadHMAC := s.hmacKeys[keyID]
	_, hadRSA := s.rsaKeys[keyID]
	if !hadHMAC && !hadRSA {
		return &KeyNotFoundError{KeyID: keyID, Kind: "any"}
	}

	delete(s.hmacKeys, keyID)
	delete(s.rsaKeys, keyID)
	s.logger.Info("deleted key", "key_id", keyID)

	if keyID == DefaultKeyID {
		if err := s.generateDefaults(); err != nil {
			return fmt.Errorf("failed to regenerate default keys: %w", err)
		}
		s.logger.Info("regenerated default keys after deletion")
	}

	return nil
}

// KeyExists reports whether an identifier resolves in either keyspace.
func (s *Store) KeyExists(keyID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, hmacOK := s.hmacKeys[keyID]
	_, rsaOK := s.rsaKeys[keyID]
	return hmacOK || rsaOK
}

// KeyInfo summarizes the stored key identifiers.
type KeyInfo struct {
	HMACKeys  []string `json:"hmacKeys"`
	RSAKeys   []string `json:"rsaKeys"`
	TotalKeys int      `json:"totalKeys"`
}

// Info returns the identifiers currently stored, sorted for stable output.
func (s *Store) Info() KeyInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := KeyInfo{
		HMACKeys: make([]string, 0, len(s.hmacKeys)),
		RSAKeys:  make([]string, 0, len(s.rsaKeys)),
	}
	for id := range s.hmacKeys {
		info.HMACKeys = append(info.HMACKeys, id)
	}
	for id := range s.rsaKeys {
		info.RSAKeys = append(info.RSAKeys, id)
	}
	sort.Strings(info.HMACKeys)
	sort.Strings(info.RSAKeys)
	info.TotalKeys = len(info.HMACKeys) + len(info.RSAKeys)

	return info
}

// PublicKeyPEM returns the PKIX PEM encoding of an RSA public key, the
// form verification tools expect.
func (s *Store) PublicKeyPEM(keyID string) (string, error) {
	s.mu.RLock()
	key, ok := s.rsaKeys[keyID]
	s.mu.RUnlock()
	if !ok {
		return "", &KeyNotFoundError{KeyID: keyID, Kind: "RSA"}
	}

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to encode RSA public key: %w", err)
	}

	block := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	})
	return string(block), nil
}

// JWK is a single JSON Web Key (RFC 7517). Only RSA public material is
// ever published; HMAC secrets never leave the store.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWKS returns the public half of every RSA key as a JSON Web Key Set.
// Modulus and exponent are base64url encoded without padding; big.Int
// serialization already omits the leading zero sign byte.
func (s *Store) JWKS() JWKS {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.rsaKeys))
	for id := range s.rsaKeys {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	set := JWKS{Keys: make([]JWK, 0, len(ids))}
	for _, id := range ids {
		pub := &s.rsaKeys[id].PublicKey
		set.Keys = append(set.Keys, JWK{
			Kty: "RSA",
			Use: "sig",
			Kid: id,
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}

	return set
}
