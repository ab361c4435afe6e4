package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/skillfolio-api/internal/dto"
	"github.com/noah-isme/skillfolio-api/internal/models"
	"github.com/noah-isme/skillfolio-api/internal/observability"
	"github.com/noah-isme/skillfolio-api/internal/repository"
)

// DefaultIssuanceTimeout bounds signing, rendering and publishing for one approval.
const DefaultIssuanceTimeout = 30 * time.Second

// TransitionResult is the outcome of a moderation decision or a reissue. Activity is
// always the committed record, also when ErrIssuanceFailed is returned alongside it.
type TransitionResult struct {
	Activity        models.Activity
	Token           *string
	DocumentLocator *string
}

// ModerationService moves pending activities to a terminal state and issues credentials
// for approvals.
type ModerationService interface {
	Transition(ctx context.Context, id string, req dto.ModerationRequest) (TransitionResult, error)
	Reissue(ctx context.Context, id string) (TransitionResult, error)
}

type moderationService struct {
	repo     repository.ActivityRepository
	issuer   IssuerService
	audit    AuditRecorder
	events   EventPublisher
	validate *validator.Validate
	timeout  time.Duration
	reissues singleflight.Group
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewModerationService constructs the moderation workflow. A nil validator skips the
// length checks on moderator and comment.
func NewModerationService(repo repository.ActivityRepository, issuer IssuerService, audit AuditRecorder, events EventPublisher, validate *validator.Validate, issuanceTimeout time.Duration, logger zerolog.Logger) ModerationService {
	if issuanceTimeout <= 0 {
		issuanceTimeout = DefaultIssuanceTimeout
	}
	component := logger.With().Str("component", "moderation_service").Logger()
	if events == nil {
		events = NewNoopPublisher(logger)
	}
	return &moderationService{
		repo:     repo,
		issuer:   issuer,
		audit:    audit,
		events:   events,
		validate: validate,
		timeout:  issuanceTimeout,
		logger:   component,
		tracer:   otel.Tracer("github.com/noah-isme/skillfolio-api/internal/service/moderation"),
		now:      time.Now,
	}
}

func (s *moderationService) Transition(ctx context.Context, id string, req dto.ModerationRequest) (TransitionResult, error) {
	status, ok := models.ParseModerationAction(req.Action)
	if !ok {
		return TransitionResult{}, fmt.Errorf("%w: %q", ErrInvalidAction, req.Action)
	}
	if s.validate != nil {
		if err := s.validate.Struct(req); err != nil {
			return TransitionResult{}, err
		}
	}

	ctx, span := s.tracer.Start(ctx, "moderation.transition")
	defer span.End()
	span.SetAttributes(attribute.String("activity.id", id), attribute.String("moderation.action", string(status)))

	id = strings.TrimSpace(id)
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TransitionResult{}, s.storageError(span, err)
	}
	if current.IsFinal() {
		span.SetStatus(codes.Error, "already finalized")
		return TransitionResult{}, ErrAlreadyFinalized
	}

	patch := repository.TransitionPatch{
		Status:     status,
		Comment:    req.Comment,
		VerifiedAt: s.now().UTC(),
	}
	moderator := ""
	if req.Moderator != nil {
		moderator = strings.TrimSpace(*req.Moderator)
	}
	if moderator != "" {
		patch.Moderator = &moderator
	}

	committed, err := s.repo.Transition(ctx, id, patch)
	if err != nil {
		return TransitionResult{}, s.storageError(span, err)
	}

	observability.ModerationTransitions().WithLabelValues(string(status)).Inc()
	log := s.logger.With().Str("activity_id", id).Str("action", string(status)).Str("moderator", committed.Moderator).Logger()
	log.Info().Msg("activity moderated")

	auditAction := AuditActionRejected
	if status == models.ActivityStatusApproved {
		auditAction = AuditActionApproved
	}
	s.record(ctx, AuditEntry{
		Actor:      moderator,
		Action:     auditAction,
		ActivityID: id,
		Metadata:   map[string]interface{}{"comment": committed.Comment},
	})
	s.publish(ctx, Event{
		Type:       EventActivityModerated,
		ActivityID: id,
		Data:       map[string]interface{}{"status": string(status), "moderator": committed.Moderator},
	})

	if status == models.ActivityStatusRejected {
		span.SetStatus(codes.Ok, "rejected")
		return TransitionResult{Activity: committed}, nil
	}

	result, err := s.issue(ctx, committed, moderator, AuditActionIssued)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "issuance failed")
		return result, err
	}

	span.SetStatus(codes.Ok, "approved")
	return result, nil
}

// Reissue regenerates the credential and certificate of an approved activity. Concurrent
// calls for the same id share one issuance.
func (s *moderationService) Reissue(ctx context.Context, id string) (TransitionResult, error) {
	id = strings.TrimSpace(id)
	value, err, _ := s.reissues.Do(id, func() (interface{}, error) {
		ctx, span := s.tracer.Start(ctx, "moderation.reissue")
		defer span.End()
		span.SetAttributes(attribute.String("activity.id", id))

		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return TransitionResult{}, s.storageError(span, err)
		}
		if !current.IsApproved() {
			span.SetStatus(codes.Error, "not approved")
			return TransitionResult{}, ErrActivityNotApproved
		}

		return s.issue(ctx, current, "", AuditActionReissued)
	})

	result, _ := value.(TransitionResult)
	return result, err
}

// issue runs the issuer for an already committed approval and attaches the outputs. The
// approval is never rolled back; on failure the committed record is returned with
// ErrIssuanceFailed.
func (s *moderationService) issue(ctx context.Context, committed models.Activity, moderator, auditAction string) (TransitionResult, error) {
	issueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	log := s.logger.With().Str("activity_id", committed.ID).Str("moderator", committed.Moderator).Logger()

	issued, err := s.issuer.Issue(issueCtx, committed, moderator, committed.Comment)
	if err != nil {
		return s.issuanceFailed(issueCtx, log, committed, err)
	}

	attached, err := s.repo.AttachCredential(issueCtx, committed.ID, issued.Token, issued.DocumentLocator)
	if err != nil {
		return s.issuanceFailed(issueCtx, log, committed, fmt.Errorf("attach credential: %w", err))
	}

	s.record(issueCtx, AuditEntry{
		Actor:      attached.Moderator,
		Action:     auditAction,
		ActivityID: committed.ID,
		Metadata:   map[string]interface{}{"claim_id": issued.ClaimID, "document_locator": issued.DocumentLocator},
	})
	s.publish(issueCtx, Event{
		Type:       EventCredentialIssued,
		ActivityID: committed.ID,
		Data:       map[string]interface{}{"claim_id": issued.ClaimID, "document_locator": issued.DocumentLocator},
	})

	log.Info().Str("claim_id", issued.ClaimID).Msg("credential attached")

	token := issued.Token
	locator := issued.DocumentLocator
	return TransitionResult{Activity: attached, Token: &token, DocumentLocator: &locator}, nil
}

func (s *moderationService) issuanceFailed(ctx context.Context, log zerolog.Logger, committed models.Activity, cause error) (TransitionResult, error) {
	log.Error().Err(cause).Msg("approval committed but credential issuance failed")
	// ctx may already be past the issuance deadline.
	s.record(context.WithoutCancel(ctx), AuditEntry{
		Actor:      committed.Moderator,
		Action:     AuditActionIssuanceFailed,
		ActivityID: committed.ID,
		Metadata:   map[string]interface{}{"error": cause.Error()},
	})
	return TransitionResult{Activity: committed}, fmt.Errorf("%w: %w", ErrIssuanceFailed, cause)
}

func (s *moderationService) storageError(span trace.Span, err error) error {
	switch {
	case errors.Is(err, repository.ErrActivityNotFound):
		span.SetStatus(codes.Error, "not found")
		return ErrActivityNotFound
	case errors.Is(err, repository.ErrActivityNotPending):
		span.SetStatus(codes.Error, "already finalized")
		return ErrAlreadyFinalized
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failure")
		return err
	}
}

func (s *moderationService) record(ctx context.Context, entry AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("activity_id", entry.ActivityID).Str("action", entry.Action).Msg("failed to record audit entry")
	}
}

func (s *moderationService) publish(ctx context.Context, event Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("activity_id", event.ActivityID).Str("type", event.Type).Msg("failed to publish event")
	}
}
