package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/rs/zerolog"
)

// PublicJWKS renders the RS256 verification key as a JWK Set so relying parties can verify
// credentials without contacting this service again.
func PublicJWKS(ctx context.Context, keys KeyMaterial) (json.RawMessage, error) {
	if keys.PublicKey == nil {
		return nil, ErrNoPublicKey
	}

	jwk, err := jwkset.NewJWKFromKey(keys.PublicKey, jwkset.JWKOptions{
		Metadata: jwkset.JWKMetadataOptions{
			ALG: jwkset.AlgRS256,
			KID: keys.KeyID,
			USE: jwkset.UseSig,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build jwk: %w", err)
	}

	storage := jwkset.NewMemoryStorage()
	if err := storage.KeyWrite(ctx, jwk); err != nil {
		return nil, fmt.Errorf("store jwk: %w", err)
	}

	return storage.JSONPublic(ctx)
}

// RemoteKeys fetches and periodically refreshes a JWK Set from url. The first fetch is
// allowed to fail so a relying party can start before the issuer is reachable.
func RemoteKeys(ctx context.Context, url string, refresh time.Duration, logger zerolog.Logger) (keyfunc.Keyfunc, error) {
	if refresh <= 0 {
		refresh = time.Hour
	}

	storage, err := jwkset.NewStorageFromHTTP(url, jwkset.HTTPClientStorageOptions{
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refresh,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Warn().Err(err).Str("jwks_url", url).Msg("failed to refresh remote jwks")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: remote jwks: %w", ErrSigningConfig, err)
	}

	kf, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("%w: remote jwks keyfunc: %w", ErrSigningConfig, err)
	}

	return kf, nil
}
