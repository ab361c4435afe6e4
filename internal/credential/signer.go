package credential

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Signer serialises and signs claim sets with the configured algorithm.
type Signer struct {
	method jwt.SigningMethod
	key    interface{}
	keyID  string
	issuer string
}

// NewSigner validates the key material up front so a misconfigured service fails at startup.
func NewSigner(keys KeyMaterial, issuer string) (*Signer, error) {
	method, key, err := keys.signingMethod()
	if err != nil {
		return nil, err
	}

	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, fmt.Errorf("%w: issuer identity missing", ErrSigningConfig)
	}

	return &Signer{
		method: method,
		key:    key,
		keyID:  keys.KeyID,
		issuer: issuer,
	}, nil
}

// Issuer returns the identity placed in the iss claim.
func (s *Signer) Issuer() string {
	return s.issuer
}

// Algorithm returns the JWS algorithm used for signing.
func (s *Signer) Algorithm() string {
	return s.method.Alg()
}

// Sign returns the compact JWS serialisation of the claims.
func (s *Signer) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(s.method, claims)
	if s.method == jwt.SigningMethodRS256 && s.keyID != "" {
		token.Header["kid"] = s.keyID
	}

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningConfig, err)
	}

	return signed, nil
}
