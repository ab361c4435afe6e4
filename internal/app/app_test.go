package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillfolio-api/internal/config"
	"github.com/noah-isme/skillfolio-api/internal/dto"
)

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		AppName:        "Skillfolio API",
		DatabaseDriver: "sqlite",
		DatabaseURL:    filepath.Join(dir, "app.db"),
		Credential: config.CredentialConfig{
			Algorithm: config.AlgorithmHS256,
			Secret:    "app-test-secret",
			Issuer:    "http://localhost:5000",
		},
		Storage: config.StorageConfig{
			Driver:            config.StorageLocal,
			LocalDir:          filepath.Join(dir, "pdfs"),
			LocalPublicPrefix: "/public/pdfs",
		},
	}
}

func TestNewWiresLocalStack(t *testing.T) {
	container, err := New(context.Background(), sqliteConfig(t), zerolog.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(container.Close)

	require.NotNil(t, container.Local)
	require.Nil(t, container.JWKS)

	deps := container.RouterDependencies()
	require.NotNil(t, deps.ActivityHandler)
	require.NotNil(t, deps.DocumentHandler)

	ctx := context.Background()
	activity, err := container.Activities.Create(ctx, dto.ActivityCreateRequest{StudentID: "2025CS001", Title: "Internship"})
	require.NoError(t, err)

	moderator := "Dr. Rao"
	result, err := container.Moderation.Transition(ctx, activity.ID, dto.ModerationRequest{Action: "approved", Moderator: &moderator})
	require.NoError(t, err)
	require.NotNil(t, result.Token)
	require.Equal(t, "/public/pdfs/"+activity.ID+".pdf", *result.DocumentLocator)

	verified := container.Verification.Verify(ctx, *result.Token)
	require.True(t, verified.Valid, verified.Error)
}

func TestNewRejectsUnknownStorageDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Storage.Driver = "ftp"

	_, err := New(context.Background(), cfg, zerolog.New(io.Discard))
	require.Error(t, err)
}

func TestVerifyURLPrefersPublicBase(t *testing.T) {
	cfg := sqliteConfig(t)
	require.Equal(t, "http://localhost:5000/api/verify", VerifyURL(cfg))

	cfg.PublicBaseURL = "https://credentials.example.edu/"
	require.Equal(t, "https://credentials.example.edu/api/verify", VerifyURL(cfg))
}
