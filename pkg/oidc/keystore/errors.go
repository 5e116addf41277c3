package keystore

import (
	"errors"
	"fmt"
)

// Common key store errors that can be checked with errors.Is().
var (
	// ErrKeyNotFound is returned when no key of the required kind exists
	// under the requested identifier.
	ErrKeyNotFound = errors.New("signing key not found")

	// ErrUnsupportedAlgorithm is returned for algorithms other than
	// HS256 and RS256.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// KeyNotFoundError is returned when a key lookup fails.
type KeyNotFoundError struct {
	// KeyID is the identifier that was looked up.
	KeyID string

	// Kind is the key kind that was required ("HMAC", "RSA", or "any").
	Kind string
}

// Error implements the error interface.
func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("%s key not found: %s", e.Kind, e.KeyID)
}

// Is implements error matching for errors.Is().
func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// UnsupportedAlgorithmError is returned when a signing request names an
// algorithm the store cannot handle.
type UnsupportedAlgorithmError struct {
	// Algorithm is the rejected algorithm name.
	Algorithm string
}

// Error implements the error interface.
func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("unsupported algorithm: %s", e.Algorithm)
}

// Is implements error matching for errors.Is().
func (e *UnsupportedAlgorithmError) Is(target error) bool {
	return target == ErrUnsupportedAlgorithm
}
