package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Uploader is the subset of the Cloudinary upload API used by Service.
type Uploader interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

// Service stores certificate documents as raw Cloudinary assets.
type Service struct {
	uploader Uploader
	folder   string
	logger   zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return NewWithUploader(&cld.Upload, cfg.Folder, logger), nil
}

// NewWithUploader wires an existing upload client.
func NewWithUploader(up Uploader, folder string, logger zerolog.Logger) *Service {
	return &Service{
		uploader: up,
		folder:   strings.Trim(folder, "/"),
		logger:   logger.With().Str("component", "cloudinary").Logger(),
	}
}

// Save uploads the document under a public id derived only from name, overwriting any
// previous upload, and returns the secure URL.
func (s *Service) Save(ctx context.Context, name string, reader io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       buildPublicID(name),
		ResourceType:   "raw",
		Overwrite:      api.Bool(true),
		Invalidate:     api.Bool(true),
		UniqueFilename: api.Bool(false),
	}

	result, err := s.uploader.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("certificate uploaded to cloudinary")

	return result.SecureURL, nil
}

func buildPublicID(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "document"
	}

	return base + ext
}
