package apple

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
)

// IdentityClaims is the decoded payload of an Apple identity token.
type IdentityClaims struct {
	Subject        string    `json:"sub"`
	Email          string    `json:"email"`
	EmailVerified  LooseBool `json:"email_verified"`
	IsPrivateEmail LooseBool `json:"is_private_email"`
	RealUserStatus int       `json:"real_user_status"`
}

// LooseBool unmarshals Apple's boolean claims, which arrive either as JSON
// booleans or as the strings "true"/"false" depending on the flow.
type LooseBool bool

func (b *LooseBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true":
		*b = true
	case "false", "null", "":
		*b = false
	default:
		return fmt.Errorf("invalid boolean claim: %s", data)
	}
	return nil
}

// DecodeIdentityToken splits a compact identity token and decodes its payload
// segment without verifying the signature. Anything that is not a
// three-segment token with a base64url JSON payload fails with
// domain.ErrMalformedToken.
//
// This is the pure transform only: callers that trust the result for
// authentication must pair it with VerifyIdentityToken so the token is
// checked against Apple's published keys.
func DecodeIdentityToken(raw string) (*IdentityClaims, error) {
	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", domain.ErrMalformedToken, len(segments))
	}

	payload, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not base64url", domain.ErrMalformedToken)
	}

	var claims IdentityClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload is not valid JSON", domain.ErrMalformedToken)
	}

	return &claims, nil
}

// VerifyIdentityToken validates the token's ES256 signature against Apple's
// JWKS, along with issuer, audience, and expiry, before decoding the claims.
func VerifyIdentityToken(jwks *keyfunc.JWKS, clientID, raw string) (*IdentityClaims, error) {
	token, err := jwt.Parse(raw, jwks.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg(), jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(appleAudience),
		jwt.WithAudience(clientID),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: apple identity token rejected", domain.ErrProviderAuth)
	}

	return DecodeIdentityToken(raw)
}
