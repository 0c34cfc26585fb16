package apple

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// appleAudience is the fixed audience of the client secret: Apple's token
// endpoint host.
const appleAudience = "https://appleid.apple.com"

// clientSecretTTL keeps the assertion well under Apple's 6-month ceiling.
// The secret is regenerated per token-exchange call and never cached.
const clientSecretTTL = time.Hour

// BuildClientSecret signs the ES256 assertion Apple requires in place of a
// static client secret: header {alg: ES256, kid}, payload {iss: teamID,
// sub: clientID, aud: appleid.apple.com, iat, exp}.
func BuildClientSecret(teamID, keyID, clientID string, key *ecdsa.PrivateKey, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    teamID,
		Subject:   clientID,
		Audience:  jwt.ClaimStrings{appleAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(clientSecretTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign apple client secret: %w", err)
	}
	return signed, nil
}

// ParseSigningKey parses the PEM-encoded EC private key downloaded from the
// Apple developer portal (the .p8 file contents).
func ParseSigningKey(pemKey []byte) (*ecdsa.PrivateKey, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("parse apple signing key: %w", err)
	}
	return key, nil
}
