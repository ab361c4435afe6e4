package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/skillfolio-api/internal/models"
)

// AuditLogFilter narrows audit log queries.
type AuditLogFilter struct {
	ActivityID string
	Action     string
	Limit      int
}

// AuditLogRepository persists moderation and issuance events.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository constructs the audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.ActivityID != "" {
		query = query.Where("activity_id = ?", filter.ActivityID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []models.AuditLog
	if err := query.Order("id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
