package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevelopmentSecret is the HMAC secret used when none is configured outside production.
const DevelopmentSecret = "dev-secret"

// Signing algorithms accepted by the credential layer.
const (
	AlgorithmHS256 = "HS256"
	AlgorithmRS256 = "RS256"
)

// Document sink drivers.
const (
	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"
	StorageS3         = "s3"
)

// ErrMissingKeyMaterial is returned when production mode lacks real signing keys.
var ErrMissingKeyMaterial = errors.New("credential key material must be provided in production")

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseDriver    string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	EventSubject      string
	StudentCacheTTL   time.Duration
	VerifyRateLimit   int
	Credential        CredentialConfig
	Storage           StorageConfig
	IssuanceTimeout   time.Duration
	PublicBaseURL     string
	CertificateFooter string
}

// CredentialConfig is the key source consumed by the issuer and the verifier.
type CredentialConfig struct {
	Algorithm     string
	Secret        string
	PrivateKeyPEM string
	PublicKeyPEM  string
	KeyID         string
	Issuer        string
	JWKSURL       string
}

// StorageConfig selects and configures the certificate document sink.
type StorageConfig struct {
	Driver              string
	LocalDir            string
	LocalPublicPrefix   string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	S3Bucket            string
	S3Region            string
	S3Endpoint          string
	S3Prefix            string
	S3PublicBaseURL     string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production guarantees.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SKILLFOLIO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Skillfolio API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("events.subject", "skillfolio.activities")
	v.SetDefault("students.cache_ttl", "5m")
	v.SetDefault("verify.rate_limit", 60)
	v.SetDefault("credential.algorithm", AlgorithmHS256)
	v.SetDefault("credential.issuer", "http://localhost:5000")
	v.SetDefault("credential.key_id", "skillfolio-1")
	v.SetDefault("storage.driver", StorageLocal)
	v.SetDefault("storage.local_dir", "public/pdfs")
	v.SetDefault("storage.local_public_prefix", "/public/pdfs")
	v.SetDefault("storage.cloudinary_folder", "skillfolio/certificates")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_prefix", "certificates")
	v.SetDefault("issuance.timeout", "30s")
	v.SetDefault("certificate.footer", "Verification token is embedded in the system; present it at the verification page to check this credential online.")

	cacheTTL, err := parseDuration(v, "students.cache_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid student cache ttl: %w", err)
	}

	issuanceTimeout, err := parseDuration(v, "issuance.timeout", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid issuance timeout: %w", err)
	}

	privateKey, err := readPEM(v.GetString("credential.private_key"), v.GetString("credential.private_key_path"))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read private key: %w", err)
	}

	publicKey, err := readPEM(v.GetString("credential.public_key"), v.GetString("credential.public_key_path"))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read public key: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseDriver:  strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		EventSubject:    v.GetString("events.subject"),
		StudentCacheTTL: cacheTTL,
		VerifyRateLimit: v.GetInt("verify.rate_limit"),
		Credential: CredentialConfig{
			Algorithm:     strings.ToUpper(v.GetString("credential.algorithm")),
			Secret:        v.GetString("credential.secret"),
			PrivateKeyPEM: privateKey,
			PublicKeyPEM:  publicKey,
			KeyID:         v.GetString("credential.key_id"),
			Issuer:        v.GetString("credential.issuer"),
			JWKSURL:       v.GetString("credential.jwks_url"),
		},
		Storage: StorageConfig{
			Driver:              strings.ToLower(v.GetString("storage.driver")),
			LocalDir:            v.GetString("storage.local_dir"),
			LocalPublicPrefix:   v.GetString("storage.local_public_prefix"),
			CloudinaryCloudName: v.GetString("storage.cloudinary_cloud_name"),
			CloudinaryAPIKey:    v.GetString("storage.cloudinary_api_key"),
			CloudinaryAPISecret: v.GetString("storage.cloudinary_api_secret"),
			CloudinaryFolder:    v.GetString("storage.cloudinary_folder"),
			S3Bucket:            v.GetString("storage.s3_bucket"),
			S3Region:            v.GetString("storage.s3_region"),
			S3Endpoint:          v.GetString("storage.s3_endpoint"),
			S3Prefix:            v.GetString("storage.s3_prefix"),
			S3PublicBaseURL:     v.GetString("storage.s3_public_base_url"),
		},
		IssuanceTimeout:   issuanceTimeout,
		PublicBaseURL:     v.GetString("public_base_url"),
		CertificateFooter: v.GetString("certificate.footer"),
	}

	if cfg.Credential.Secret == "" && cfg.Credential.Algorithm == AlgorithmHS256 && !cfg.IsProduction() {
		cfg.Credential.Secret = DevelopmentSecret
	}

	if cfg.VerifyRateLimit <= 0 {
		cfg.VerifyRateLimit = 60
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	switch c.Credential.Algorithm {
	case AlgorithmHS256:
		if c.Credential.Secret == "" {
			return fmt.Errorf("%w: credential secret is empty", ErrMissingKeyMaterial)
		}
		if c.IsProduction() && (c.Credential.Secret == DevelopmentSecret || len(c.Credential.Secret) < 32) {
			return fmt.Errorf("%w: HS256 secret must be at least 32 characters and not the development default", ErrMissingKeyMaterial)
		}
	case AlgorithmRS256:
		if c.Credential.PrivateKeyPEM == "" {
			return fmt.Errorf("%w: RS256 requires a private key", ErrMissingKeyMaterial)
		}
	default:
		return fmt.Errorf("unsupported credential algorithm %q", c.Credential.Algorithm)
	}

	if strings.TrimSpace(c.Credential.Issuer) == "" {
		return fmt.Errorf("credential issuer must be provided")
	}

	switch c.Storage.Driver {
	case StorageLocal:
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("local storage directory must be provided")
		}
	case StorageCloudinary:
		if c.Storage.CloudinaryCloudName == "" || c.Storage.CloudinaryAPIKey == "" || c.Storage.CloudinaryAPISecret == "" {
			return fmt.Errorf("cloudinary credentials must be provided")
		}
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("s3 bucket must be provided")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	return nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

func readPEM(inline, path string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return strings.ReplaceAll(inline, `\n`, "\n"), nil
	}
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
