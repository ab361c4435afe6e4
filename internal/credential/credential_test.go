package credential

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillfolio-api/internal/config"
	"github.com/noah-isme/skillfolio-api/internal/models"
)

const testIssuer = "http://localhost:5000"

func sampleActivity() models.Activity {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	hours := 40.0
	return models.Activity{
		ID:          "act-123",
		StudentID:   "2025CS001",
		StudentName: "Asha Verma",
		Title:       "Internship",
		Date:        &date,
		Hours:       &hours,
		Description: "Backend internship",
		Status:      models.ActivityStatusApproved,
	}
}

func hmacKeys() KeyMaterial {
	return KeyMaterial{Algorithm: config.AlgorithmHS256, Secret: []byte("test-secret")}
}

func rsaKeys(t *testing.T) KeyMaterial {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return KeyMaterial{
		Algorithm:  config.AlgorithmRS256,
		PrivateKey: key,
		PublicKey:  &key.PublicKey,
		KeyID:      "test-key-1",
	}
}

func signClaims(t *testing.T, keys KeyMaterial, claims Claims) string {
	t.Helper()
	signer, err := NewSigner(keys, testIssuer)
	require.NoError(t, err)
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func TestBuildClaimsIsStableAcrossTimestamps(t *testing.T) {
	activity := sampleActivity()

	first := BuildClaims(testIssuer, activity, "Dr. Rao", time.Now())
	second := BuildClaims(testIssuer, activity, "Dr. Rao", time.Now().Add(time.Hour))

	require.Equal(t, "student:2025CS001", first.Subject)
	require.Equal(t, "activity:act-123", first.ID)
	require.Equal(t, first.Subject, second.Subject)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.VC.CredentialSubject.Activity, second.VC.CredentialSubject.Activity)
	require.Equal(t, []string{TypeVerifiableCredential, TypeStudentActivity}, first.VC.Type)
	require.Equal(t, "2024-06-01", *first.VC.CredentialSubject.Activity.Date)
	require.Nil(t, first.VC.CredentialSubject.Activity.EvidenceURL)
	require.WithinDuration(t, first.IssuedAt.Add(Validity), first.ExpiresAt.Time, time.Second)
}

func TestModeratorNameFallbacks(t *testing.T) {
	activity := sampleActivity()
	require.Equal(t, "Unknown", ModeratorName("", activity))

	activity.Moderator = "Prof. Iyer"
	require.Equal(t, "Prof. Iyer", ModeratorName("  ", activity))
	require.Equal(t, "Dr. Rao", ModeratorName("Dr. Rao", activity))
}

func TestNewSignerRejectsMissingKeyMaterial(t *testing.T) {
	_, err := NewSigner(KeyMaterial{Algorithm: config.AlgorithmHS256}, testIssuer)
	require.ErrorIs(t, err, ErrSigningConfig)

	_, err = NewSigner(KeyMaterial{Algorithm: config.AlgorithmRS256}, testIssuer)
	require.ErrorIs(t, err, ErrSigningConfig)

	_, err = NewSigner(hmacKeys(), " ")
	require.ErrorIs(t, err, ErrSigningConfig)
}

func TestVerifyHS256RoundTrip(t *testing.T) {
	keys := hmacKeys()
	token := signClaims(t, keys, BuildClaims(testIssuer, sampleActivity(), "Dr. Rao", time.Now()))

	verifier, err := NewVerifier(keys, WithIssuer(testIssuer))
	require.NoError(t, err)

	result := verifier.Verify(context.Background(), token)
	require.True(t, result.Valid, result.Reason)
	require.Equal(t, "student:2025CS001", result.Claims.Subject)
	require.Equal(t, "Internship", result.Claims.VC.CredentialSubject.Activity.Title)
	require.Equal(t, "Dr. Rao", result.Claims.VC.CredentialSubject.VerifiedBy.Name)
	require.Equal(t, "2025CS001", result.Claims.VC.CredentialSubject.StudentID)
}

func TestVerifyMissingAndMalformedAreDistinct(t *testing.T) {
	verifier, err := NewVerifier(hmacKeys())
	require.NoError(t, err)

	missing := verifier.Verify(context.Background(), "")
	require.False(t, missing.Valid)
	require.Equal(t, ReasonMissingToken, missing.Reason)

	garbled := verifier.Verify(context.Background(), "not-a-token")
	require.False(t, garbled.Valid)
	require.Equal(t, ReasonMalformed, garbled.Reason)
	require.NotEqual(t, missing.Reason, garbled.Reason)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	keys := hmacKeys()
	claims := BuildClaims(testIssuer, sampleActivity(), "Dr. Rao", time.Now().Add(-Validity-24*time.Hour))
	token := signClaims(t, keys, claims)

	verifier, err := NewVerifier(keys)
	require.NoError(t, err)

	result := verifier.Verify(context.Background(), token)
	require.False(t, result.Valid)
	require.Equal(t, ReasonExpired, result.Reason)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token := signClaims(t, KeyMaterial{Algorithm: config.AlgorithmHS256, Secret: []byte("other")}, BuildClaims(testIssuer, sampleActivity(), "", time.Now()))

	verifier, err := NewVerifier(hmacKeys())
	require.NoError(t, err)

	result := verifier.Verify(context.Background(), token)
	require.False(t, result.Valid)
	require.Equal(t, ReasonInvalidSignature, result.Reason)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	keys := hmacKeys()
	claims := BuildClaims("https://elsewhere.example", sampleActivity(), "", time.Now())
	token := signClaims(t, keys, claims)

	verifier, err := NewVerifier(keys, WithIssuer(testIssuer))
	require.NoError(t, err)

	result := verifier.Verify(context.Background(), token)
	require.False(t, result.Valid)
	require.Equal(t, ReasonInvalidIssuer, result.Reason)
}

func TestVerifyRejectsAlgorithmsOutsideAllowSet(t *testing.T) {
	keys := hmacKeys()
	claims := BuildClaims(testIssuer, sampleActivity(), "Dr. Rao", time.Now())
	verifier, err := NewVerifier(keys)
	require.NoError(t, err)
	require.Equal(t, []string{config.AlgorithmHS256}, verifier.AllowedAlgorithms())

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(keys.Secret)
	require.NoError(t, err)
	result := verifier.Verify(context.Background(), hs384)
	require.False(t, result.Valid)
	require.Equal(t, ReasonUnsupportedAlgorithm, result.Reason)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	result = verifier.Verify(context.Background(), none)
	require.False(t, result.Valid)
	require.Equal(t, ReasonUnsupportedAlgorithm, result.Reason)

	rs := rsaKeys(t)
	rs256 := signClaims(t, rs, claims)
	result = verifier.Verify(context.Background(), rs256)
	require.False(t, result.Valid)
	require.Equal(t, ReasonUnsupportedAlgorithm, result.Reason)
}

func TestVerifyResistsPublicKeyAsHMACSecret(t *testing.T) {
	rs := rsaKeys(t)
	der, err := x509.MarshalPKIXPublicKey(rs.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	claims := BuildClaims(testIssuer, sampleActivity(), "Mallory", time.Now())
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(publicPEM)
	require.NoError(t, err)

	rsaOnly, err := NewVerifier(KeyMaterial{PublicKey: rs.PublicKey})
	require.NoError(t, err)
	result := rsaOnly.Verify(context.Background(), forged)
	require.False(t, result.Valid)
	require.Equal(t, ReasonUnsupportedAlgorithm, result.Reason)

	both, err := NewVerifier(KeyMaterial{Secret: []byte("test-secret"), PublicKey: rs.PublicKey})
	require.NoError(t, err)
	result = both.Verify(context.Background(), forged)
	require.False(t, result.Valid)
	require.Equal(t, ReasonInvalidSignature, result.Reason)
}

func TestVerifyRS256WithLocalPublicKey(t *testing.T) {
	rs := rsaKeys(t)
	token := signClaims(t, rs, BuildClaims(testIssuer, sampleActivity(), "Dr. Rao", time.Now()))

	verifier, err := NewVerifier(KeyMaterial{PublicKey: rs.PublicKey}, WithIssuer(testIssuer))
	require.NoError(t, err)

	result := verifier.Verify(context.Background(), token)
	require.True(t, result.Valid, result.Reason)
	require.Equal(t, "activity:act-123", result.Claims.ID)
}

func TestVerifyRS256AgainstPublishedJWKS(t *testing.T) {
	rs := rsaKeys(t)
	token := signClaims(t, rs, BuildClaims(testIssuer, sampleActivity(), "Dr. Rao", time.Now()))

	jwks, err := PublicJWKS(context.Background(), rs)
	require.NoError(t, err)
	require.Contains(t, string(jwks), "test-key-1")
	require.NotContains(t, string(jwks), `"d"`)

	remote, err := keyfunc.NewJWKSetJSON(jwks)
	require.NoError(t, err)

	verifier, err := NewVerifier(KeyMaterial{}, WithRemoteKeys(remote))
	require.NoError(t, err)

	result := verifier.Verify(context.Background(), token)
	require.True(t, result.Valid, result.Reason)
	require.Equal(t, "Internship", result.Claims.VC.CredentialSubject.Activity.Title)
}

func TestPublicJWKSRequiresAsymmetricKey(t *testing.T) {
	_, err := PublicJWKS(context.Background(), hmacKeys())
	require.ErrorIs(t, err, ErrNoPublicKey)
}

func TestNewVerifierRequiresKeyMaterial(t *testing.T) {
	_, err := NewVerifier(KeyMaterial{})
	require.ErrorIs(t, err, ErrSigningConfig)
}

func TestLoadKeyMaterialParsesPEM(t *testing.T) {
	rs := rsaKeys(t)
	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rs.PrivateKey)})

	keys, err := LoadKeyMaterial(config.CredentialConfig{Algorithm: "rs256", PrivateKeyPEM: string(privatePEM), KeyID: "k1"})
	require.NoError(t, err)
	require.Equal(t, config.AlgorithmRS256, keys.Algorithm)
	require.NotNil(t, keys.PublicKey)

	_, err = LoadKeyMaterial(config.CredentialConfig{PrivateKeyPEM: "garbage"})
	require.ErrorIs(t, err, ErrSigningConfig)
}
