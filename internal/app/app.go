// Package app assembles the service graph shared by the HTTP server and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/skillfolio-api/internal/certificate"
	"github.com/noah-isme/skillfolio-api/internal/config"
	"github.com/noah-isme/skillfolio-api/internal/credential"
	"github.com/noah-isme/skillfolio-api/internal/database"
	"github.com/noah-isme/skillfolio-api/internal/handler"
	"github.com/noah-isme/skillfolio-api/internal/repository"
	"github.com/noah-isme/skillfolio-api/internal/router"
	"github.com/noah-isme/skillfolio-api/internal/service"
	"github.com/noah-isme/skillfolio-api/internal/storage"
	cloud "github.com/noah-isme/skillfolio-api/pkg/cloudinary"
)

const verifyPath = "/api/verify"

// Container holds the wired services and the connections they depend on.
type Container struct {
	Config config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	NATS   *nats.Conn

	Keys  credential.KeyMaterial
	JWKS  []byte
	Local *storage.LocalSink

	Activities   service.ActivityService
	Moderation   service.ModerationService
	Verification service.VerificationService
	Students     service.StudentService
	Audit        service.AuditService

	logger zerolog.Logger
}

// New connects to the configured backends and builds every service. Redis and NATS are
// optional; without them the student list is uncached and events are dropped.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, logger: logger}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	c.DB = db

	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, student cache disabled")
		} else {
			c.Redis = client
		}
	}

	events := service.NewNoopPublisher(logger)
	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, events disabled")
		} else {
			c.NATS = conn
			events = service.NewNATSPublisher(conn, cfg.EventSubject, logger)
		}
	}

	keys, err := credential.LoadKeyMaterial(cfg.Credential)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Keys = keys

	signer, err := credential.NewSigner(keys, cfg.Credential.Issuer)
	if err != nil {
		c.Close()
		return nil, err
	}

	verifier, err := c.buildVerifier(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	if keys.PublicKey != nil {
		document, err := credential.PublicJWKS(ctx, keys)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.JWKS = document
	}

	sink, err := c.buildSink(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activityRepo := repository.NewActivityRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	renderer := certificate.NewRenderer(cfg.CertificateFooter, nil)
	issuer := service.NewIssuerService(signer, renderer, sink, VerifyURL(cfg), logger)

	c.Audit = service.NewAuditService(auditRepo, logger)
	c.Activities = service.NewActivityService(activityRepo, validate, logger)
	c.Moderation = service.NewModerationService(activityRepo, issuer, c.Audit, events, validate, cfg.IssuanceTimeout, logger)
	c.Verification = service.NewVerificationService(verifier, logger)
	c.Students = service.NewStudentService(studentRepo, c.Redis, cfg.StudentCacheTTL, validate, logger)

	return c, nil
}

// RouterDependencies builds the HTTP handlers for the router.
func (c *Container) RouterDependencies() router.Dependencies {
	deps := router.Dependencies{
		ActivityHandler:     handler.NewActivityHandler(c.Activities, c.Moderation, c.Audit, c.logger),
		VerificationHandler: handler.NewVerificationHandler(c.Verification, c.logger),
		StudentHandler:      handler.NewStudentHandler(c.Students, c.logger),
		JWKS:                c.JWKS,
	}
	if c.Local != nil {
		deps.DocumentHandler = handler.NewDocumentHandler(c.Local, c.logger)
	}
	return deps
}

// Close releases the backend connections.
func (c *Container) Close() {
	if c.NATS != nil {
		if err := c.NATS.Drain(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to drain nats connection")
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// VerifyURL is the public verification address printed on certificates.
func VerifyURL(cfg config.Config) string {
	base := strings.TrimSpace(cfg.PublicBaseURL)
	if base == "" {
		base = cfg.Credential.Issuer
	}
	return strings.TrimRight(base, "/") + verifyPath
}

func (c *Container) buildVerifier(ctx context.Context) (*credential.Verifier, error) {
	opts := []credential.VerifierOption{credential.WithIssuer(c.Config.Credential.Issuer)}

	if url := strings.TrimSpace(c.Config.Credential.JWKSURL); url != "" {
		remote, err := credential.RemoteKeys(ctx, url, 0, c.logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, credential.WithRemoteKeys(remote))
	}

	return credential.NewVerifier(c.Keys, opts...)
}

func (c *Container) buildSink(ctx context.Context) (storage.DocumentSink, error) {
	sc := c.Config.Storage

	switch sc.Driver {
	case config.StorageLocal:
		local, err := storage.NewLocalSink(sc.LocalDir, sc.LocalPublicPrefix)
		if err != nil {
			return nil, err
		}
		c.Local = local
		return local, nil
	case config.StorageCloudinary:
		uploader, err := cloud.New(cloud.Config{
			CloudName: sc.CloudinaryCloudName,
			APIKey:    sc.CloudinaryAPIKey,
			APISecret: sc.CloudinaryAPISecret,
			Folder:    sc.CloudinaryFolder,
		}, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
		}
		return storage.NewRemoteSink(uploader), nil
	case config.StorageS3:
		return storage.NewS3Sink(ctx, storage.S3Options{
			Bucket:        sc.S3Bucket,
			Region:        sc.S3Region,
			Endpoint:      sc.S3Endpoint,
			Prefix:        sc.S3Prefix,
			PublicBaseURL: sc.S3PublicBaseURL,
		})
	default:
		return nil, errors.New("unsupported storage driver " + sc.Driver)
	}
}
