package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/skillfolio-api/internal/certificate"
	"github.com/noah-isme/skillfolio-api/internal/credential"
	"github.com/noah-isme/skillfolio-api/internal/models"
	"github.com/noah-isme/skillfolio-api/internal/observability"
	"github.com/noah-isme/skillfolio-api/internal/storage"
)

const pdfMIME = "application/pdf"

// TokenSigner signs credential claim sets.
type TokenSigner interface {
	Issuer() string
	Sign(claims credential.Claims) (string, error)
}

// DocumentRenderer renders certificate documents.
type DocumentRenderer interface {
	Render(cert certificate.Certificate) ([]byte, error)
}

// IssueResult holds the outputs of a successful issuance.
type IssueResult struct {
	Token           string
	DocumentLocator string
	ClaimID         string
	IssuedAt        time.Time
}

// IssuerService turns an approved activity into a signed credential and a published
// certificate. It does not touch the record store.
type IssuerService interface {
	Issue(ctx context.Context, activity models.Activity, moderator, comment string) (IssueResult, error)
}

type issuerService struct {
	signer    TokenSigner
	renderer  DocumentRenderer
	sink      storage.DocumentSink
	verifyURL string
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewIssuerService constructs the issuer. verifyURL is printed on certificates.
func NewIssuerService(signer TokenSigner, renderer DocumentRenderer, sink storage.DocumentSink, verifyURL string, logger zerolog.Logger) IssuerService {
	return &issuerService{
		signer:    signer,
		renderer:  renderer,
		sink:      sink,
		verifyURL: strings.TrimSpace(verifyURL),
		logger:    logger.With().Str("component", "issuer_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/skillfolio-api/internal/service/issuer"),
		now:       time.Now,
	}
}

func (s *issuerService) Issue(ctx context.Context, activity models.Activity, moderator, comment string) (IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, "credential.issue")
	defer span.End()
	span.SetAttributes(attribute.String("activity.id", activity.ID))

	issuedAt := s.now().UTC()
	claims := credential.BuildClaims(s.signer.Issuer(), activity, moderator, issuedAt)

	token, err := s.signer.Sign(claims)
	if err != nil {
		return IssueResult{}, s.fail(span, "sign", activity.ID, err)
	}

	renderStart := time.Now()
	document, err := s.renderer.Render(certificate.Certificate{
		StudentName:   activity.StudentName,
		StudentID:     activity.StudentID,
		ActivityTitle: activity.Title,
		Date:          activity.Date,
		Hours:         activity.Hours,
		VerifiedBy:    claims.VC.CredentialSubject.VerifiedBy.Name,
		VerifiedAt:    issuedAt,
		Comment:       comment,
		ClaimID:       claims.ID,
		VerifyURL:     s.verifyURL,
	})
	observability.CertificateRender().Observe(time.Since(renderStart).Seconds())
	if err != nil {
		return IssueResult{}, s.fail(span, "render", activity.ID, fmt.Errorf("%w: %w", ErrDocument, err))
	}

	if detected := mimetype.Detect(document); !detected.Is(pdfMIME) {
		return IssueResult{}, s.fail(span, "render", activity.ID, fmt.Errorf("%w: rendered %s, want %s", ErrDocument, detected.String(), pdfMIME))
	}

	locator, err := s.sink.Save(ctx, activity.ID+".pdf", bytes.NewReader(document))
	if err != nil {
		return IssueResult{}, s.fail(span, "store", activity.ID, fmt.Errorf("%w: %w", ErrDocument, err))
	}

	observability.CredentialsIssued().Inc()
	span.SetStatus(codes.Ok, "issued")
	s.logger.Info().
		Str("activity_id", activity.ID).
		Str("claim_id", claims.ID).
		Str("document_locator", locator).
		Msg("credential issued")

	return IssueResult{
		Token:           token,
		DocumentLocator: locator,
		ClaimID:         claims.ID,
		IssuedAt:        issuedAt,
	}, nil
}

func (s *issuerService) fail(span trace.Span, stage, activityID string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage+" failed")
	observability.IssuanceFailures().WithLabelValues(stage).Inc()
	s.logger.Error().Err(err).Str("activity_id", activityID).Str("stage", stage).Msg("credential issuance failed")
	return err
}
