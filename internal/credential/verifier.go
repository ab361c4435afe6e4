package credential

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/skillfolio-api/internal/config"
)

// Failure reasons reported by Verify.
const (
	ReasonMissingToken         = "missing token"
	ReasonMalformed            = "malformed token"
	ReasonUnsupportedAlgorithm = "unsupported signing algorithm"
	ReasonExpired              = "token expired"
	ReasonInvalidSignature     = "invalid signature"
	ReasonInvalidIssuer        = "invalid issuer"
	ReasonInvalidClaims        = "invalid credential claims"
	ReasonInvalid              = "invalid token"
	ReasonMalformedRequest     = "malformed request"
)

// ErrAlgorithmNotAllowed is returned when a token names an algorithm outside the allow-set.
var ErrAlgorithmNotAllowed = errors.New("signing algorithm not allowed")

// Result is the outcome of verifying a credential token.
type Result struct {
	Valid  bool
	Claims *Claims
	Reason string
}

// Verifier validates credential tokens using configured key material only.
type Verifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
	remote    keyfunc.Keyfunc
	issuer    string
	parser    *jwt.Parser
	allowed   map[string]struct{}
}

// VerifierOption customises a Verifier.
type VerifierOption func(*Verifier)

// WithRemoteKeys lets RS256 tokens be verified against a JWKS instead of a local public key.
func WithRemoteKeys(kf keyfunc.Keyfunc) VerifierOption {
	return func(v *Verifier) {
		v.remote = kf
	}
}

// WithIssuer requires the iss claim to match.
func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) {
		v.issuer = strings.TrimSpace(issuer)
	}
}

// NewVerifier builds the algorithm allow-set from the key material. HS256 is allowed only
// when a secret is configured and RS256 only when a public key or JWKS is available.
func NewVerifier(keys KeyMaterial, opts ...VerifierOption) (*Verifier, error) {
	v := &Verifier{
		secret:    keys.Secret,
		publicKey: keys.PublicKey,
		allowed:   map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(v)
	}

	if len(v.secret) > 0 {
		v.allowed[config.AlgorithmHS256] = struct{}{}
	}
	if v.publicKey != nil || v.remote != nil {
		v.allowed[config.AlgorithmRS256] = struct{}{}
	}
	if len(v.allowed) == 0 {
		return nil, fmt.Errorf("%w: no verification key configured", ErrSigningConfig)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	v.parser = jwt.NewParser(parserOpts...)

	return v, nil
}

// AllowedAlgorithms lists the algorithms this verifier accepts.
func (v *Verifier) AllowedAlgorithms() []string {
	algs := make([]string, 0, len(v.allowed))
	for _, alg := range []string{config.AlgorithmHS256, config.AlgorithmRS256} {
		if _, ok := v.allowed[alg]; ok {
			algs = append(algs, alg)
		}
	}
	return algs
}

// Verify checks signature, expiry and issuer and returns the embedded claims. It never
// touches application state.
func (v *Verifier) Verify(ctx context.Context, raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Reason: ReasonMissingToken}
	}

	unverified, _, err := v.parser.ParseUnverified(raw, &Claims{})
	if err != nil && errors.Is(err, jwt.ErrTokenMalformed) {
		return Result{Reason: ReasonMalformed}
	}
	alg := ""
	if unverified != nil {
		alg, _ = unverified.Header["alg"].(string)
	}
	if _, ok := v.allowed[alg]; !ok {
		return Result{Reason: ReasonUnsupportedAlgorithm}
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(raw, claims, v.keyfunc(ctx))
	if err != nil {
		return Result{Reason: reasonFor(err)}
	}
	if !token.Valid {
		return Result{Reason: ReasonInvalid}
	}

	if claims.Subject == "" || claims.ID == "" || len(claims.VC.Type) == 0 {
		return Result{Reason: ReasonInvalidClaims}
	}

	return Result{Valid: true, Claims: claims}
}

// keyfunc hands out the key that belongs to the algorithm family; an HMAC token never
// receives the RSA key material and vice versa.
func (v *Verifier) keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := v.allowed[token.Method.Alg()]; !ok {
			return nil, ErrAlgorithmNotAllowed
		}

		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if len(v.secret) == 0 {
				return nil, ErrAlgorithmNotAllowed
			}
			return v.secret, nil
		case *jwt.SigningMethodRSA:
			if v.remote != nil {
				return v.remote.KeyfuncCtx(ctx)(token)
			}
			if v.publicKey == nil {
				return nil, ErrAlgorithmNotAllowed
			}
			return v.publicKey, nil
		default:
			return nil, ErrAlgorithmNotAllowed
		}
	}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrAlgorithmNotAllowed):
		return ReasonUnsupportedAlgorithm
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ReasonInvalidSignature
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ReasonInvalidIssuer
	default:
		return ReasonInvalid
	}
}
