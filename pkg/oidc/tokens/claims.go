package tokens

import (
	"strings"

	"github.com/FreeSideNomad/proxima/pkg/config"
)

// AccessTokenAudience is the audience claim stamped on access tokens.
const AccessTokenAudience = "proxima-api"

// DefaultIDTokenAudience is used for ID tokens when the persona declares
// no client ID.
const DefaultIDTokenAudience = "proxima"

// personaClaims assembles the claim set shared by ID and access tokens for
// a persona. Custom claims go in first so that the identity fields and the
// registered claims written afterwards always win on collision. The
// subject and time claims belong to the signer, so customs spelled sub,
// iat, or exp are dropped rather than allowed to forge identity or expiry.
func personaClaims(persona *config.Persona, issuer, audience string) map[string]any {
	claims := make(map[string]any, len(persona.CustomClaims)+8)

	for name, value := range persona.CustomClaims {
		switch name {
		case "sub", "iat", "exp":
			continue
		}
		claims[name] = value
	}

	if persona.Email != "" {
		claims["email"] = persona.Email
	}
	if persona.Name != "" {
		claims["name"] = persona.Name
	}
	if persona.PreferredUsername != "" {
		claims["preferred_username"] = persona.PreferredUsername
	}
	if len(persona.Groups) > 0 {
		claims["groups"] = persona.Groups
	}

	claims["iss"] = issuer
	claims["aud"] = audience

	return claims
}

// idTokenClaims builds the claim set for the persona's ID token. The
// audience is the persona's client ID, or a fixed fallback when the
// persona declares none.
func idTokenClaims(persona *config.Persona, issuer string) map[string]any {
	audience := persona.ClientID
	if audience == "" {
		audience = DefaultIDTokenAudience
	}
	return personaClaims(persona, issuer, audience)
}

// accessTokenClaims builds the claim set for the persona's access token.
// Access tokens carry the granted scopes and a token_type marker so that
// downstream services can tell the two token kinds apart.
func accessTokenClaims(persona *config.Persona, issuer string, scopes []string) map[string]any {
	claims := personaClaims(persona, issuer, AccessTokenAudience)
	claims["scope"] = strings.Join(scopes, " ")
	claims["token_type"] = "access_token"
	return claims
}
