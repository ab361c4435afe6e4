package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/skillfolio-api/internal/credential"
	"github.com/noah-isme/skillfolio-api/internal/dto"
	"github.com/noah-isme/skillfolio-api/internal/observability"
)

// TokenVerifier checks credential tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) credential.Result
}

// VerificationService checks credential tokens without consulting the record store.
type VerificationService interface {
	Verify(ctx context.Context, token string) dto.VerificationResponse
}

type verificationService struct {
	verifier TokenVerifier
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewVerificationService constructs the verification service.
func NewVerificationService(verifier TokenVerifier, logger zerolog.Logger) VerificationService {
	return &verificationService{
		verifier: verifier,
		logger:   logger.With().Str("component", "verification_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/skillfolio-api/internal/service/verification"),
	}
}

func (s *verificationService) Verify(ctx context.Context, token string) dto.VerificationResponse {
	ctx, span := s.tracer.Start(ctx, "credential.verify")
	defer span.End()

	result := s.verifier.Verify(ctx, token)
	if !result.Valid {
		observability.Verifications().WithLabelValues(result.Reason).Inc()
		span.SetStatus(codes.Error, result.Reason)
		s.logger.Debug().Str("reason", result.Reason).Msg("credential rejected")
		return dto.VerificationResponse{Valid: false, Error: result.Reason}
	}

	observability.Verifications().WithLabelValues("valid").Inc()
	span.SetAttributes(attribute.String("credential.id", result.Claims.ID))
	span.SetStatus(codes.Ok, "valid")

	return dto.VerificationResponse{Valid: true, Payload: result.Claims}
}
