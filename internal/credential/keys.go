package credential

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/skillfolio-api/internal/config"
)

var (
	// ErrSigningConfig indicates missing or unusable key material. It is a configuration
	// fault and retrying will not help.
	ErrSigningConfig = errors.New("credential signing configuration invalid")
	// ErrNoPublicKey indicates no asymmetric key is available to publish.
	ErrNoPublicKey = errors.New("no public key configured")
)

// KeyMaterial is the parsed signing and verification key source.
type KeyMaterial struct {
	Algorithm  string
	Secret     []byte
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
	KeyID      string
}

// LoadKeyMaterial parses the configured secret and PEM keys.
func LoadKeyMaterial(cfg config.CredentialConfig) (KeyMaterial, error) {
	keys := KeyMaterial{
		Algorithm: strings.ToUpper(strings.TrimSpace(cfg.Algorithm)),
		KeyID:     strings.TrimSpace(cfg.KeyID),
	}
	if keys.Algorithm == "" {
		keys.Algorithm = config.AlgorithmHS256
	}

	if cfg.Secret != "" {
		keys.Secret = []byte(cfg.Secret)
	}

	if strings.TrimSpace(cfg.PrivateKeyPEM) != "" {
		privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			return KeyMaterial{}, fmt.Errorf("%w: parse private key: %v", ErrSigningConfig, err)
		}
		keys.PrivateKey = privateKey
		keys.PublicKey = &privateKey.PublicKey
	}

	if strings.TrimSpace(cfg.PublicKeyPEM) != "" {
		publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return KeyMaterial{}, fmt.Errorf("%w: parse public key: %v", ErrSigningConfig, err)
		}
		keys.PublicKey = publicKey
	}

	return keys, nil
}

func (k KeyMaterial) signingMethod() (jwt.SigningMethod, interface{}, error) {
	switch k.Algorithm {
	case config.AlgorithmHS256:
		if len(k.Secret) == 0 {
			return nil, nil, fmt.Errorf("%w: HS256 secret missing", ErrSigningConfig)
		}
		return jwt.SigningMethodHS256, k.Secret, nil
	case config.AlgorithmRS256:
		if k.PrivateKey == nil {
			return nil, nil, fmt.Errorf("%w: RS256 private key missing", ErrSigningConfig)
		}
		return jwt.SigningMethodRS256, k.PrivateKey, nil
	default:
		return nil, nil, fmt.Errorf("%w: unsupported algorithm %q", ErrSigningConfig, k.Algorithm)
	}
}
