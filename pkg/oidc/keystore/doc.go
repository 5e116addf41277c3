// Package keystore owns the signing key material for the simulated
// identity provider.
//
// It holds HMAC secrets (HS256) and RSA key pairs (RS256) keyed by
// identifier, signs tokens, and publishes RSA public material as PEM and
// as a JSON Web Key Set. A "default" key of each kind always exists.
package keystore
