package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/skillfolio-api/internal/dto"
	"github.com/noah-isme/skillfolio-api/internal/models"
	"github.com/noah-isme/skillfolio-api/internal/repository"
)

// Audit actions.
const (
	AuditActionApproved       = "approved"
	AuditActionRejected       = "rejected"
	AuditActionIssued         = "credential_issued"
	AuditActionIssuanceFailed = "issuance_failed"
	AuditActionReissued       = "credential_reissued"
)

// AuditEntry captures the details required to persist an audit entry.
type AuditEntry struct {
	Actor      string
	Action     string
	ActivityID string
	Metadata   map[string]interface{}
}

// AuditRecorder defines behaviour for recording audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditService records and lists moderation audit entries.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, activityID string, limit int) ([]dto.AuditLogResponse, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	logger zerolog.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo repository.AuditLogRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return fmt.Errorf("action is required")
	}

	model := models.AuditLog{
		Actor:      normalizeActor(entry.Actor),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		ActivityID: strings.TrimSpace(entry.ActivityID),
		Metadata:   sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("activity_id", model.ActivityID).Msg("failed to persist audit entry")
		return err
	}
	return nil
}

func (s *auditService) List(ctx context.Context, activityID string, limit int) ([]dto.AuditLogResponse, error) {
	entries, err := s.repo.List(ctx, repository.AuditLogFilter{ActivityID: strings.TrimSpace(activityID), Limit: limit})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewAuditLogResponse(entry))
	}
	return responses, nil
}

// sanitizeMetadata masks anything that looks like a credential or contact detail.
func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") {
			if email, ok := value.(string); ok {
				sanitized[key] = maskEmailAddress(email)
				continue
			}
		}
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") || strings.Contains(lower, "secret") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeActor(actor string) string {
	a := strings.TrimSpace(actor)
	if a == "" {
		return "system"
	}
	return a
}

func maskEmailAddress(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return "***"
	}
	local := parts[0]
	domain := parts[1]
	if len(local) <= 2 {
		local = local[:1] + "***"
	} else {
		local = local[:1] + "***" + local[len(local)-1:]
	}
	return local + "@" + domain
}
