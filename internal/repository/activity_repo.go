package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/skillfolio-api/internal/models"
)

const (
	// DefaultActivityListLimit is applied when the caller omits a limit.
	DefaultActivityListLimit = 200
	// MaxActivityListLimit caps listing size.
	MaxActivityListLimit = 200
)

// ActivityFilter narrows activity queries.
type ActivityFilter struct {
	Status    models.ActivityStatus
	StudentID string
	Limit     int
}

// TransitionPatch is the field-level update applied when an activity leaves pending.
// A nil pointer leaves the stored value untouched; a pointer to "" overwrites it.
type TransitionPatch struct {
	Status     models.ActivityStatus
	Moderator  *string
	Comment    *string
	VerifiedAt time.Time
}

func (p TransitionPatch) columns() map[string]interface{} {
	updates := map[string]interface{}{
		"status":      p.Status,
		"verified_at": p.VerifiedAt,
	}
	if p.Moderator != nil {
		updates["moderator"] = *p.Moderator
	}
	if p.Comment != nil {
		updates["comment"] = *p.Comment
	}
	return updates
}

// ActivityRepository persists activity records.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id string) (models.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error)
	Transition(ctx context.Context, id string, patch TransitionPatch) (models.Activity, error)
	AttachCredential(ctx context.Context, id, token, locator string) (models.Activity, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs the gorm backed activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) GetByID(ctx context.Context, id string) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&activity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})

	status := filter.Status
	if status == "" {
		status = models.ActivityStatusPending
	}
	query = query.Where("status = ?", status)

	if filter.StudentID != "" {
		query = query.Where("student_id = ?", filter.StudentID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultActivityListLimit
	}
	if limit > MaxActivityListLimit {
		limit = MaxActivityListLimit
	}

	var activities []models.Activity
	if err := query.Order("created_at DESC").Limit(limit).Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

// Transition applies the patch only while the record is still pending, so exactly one of
// several concurrent callers can move it out of pending.
func (r *activityRepository) Transition(ctx context.Context, id string, patch TransitionPatch) (models.Activity, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ? AND status = ?", id, models.ActivityStatusPending).
		Updates(patch.columns())
	if result.Error != nil {
		return models.Activity{}, result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return models.Activity{}, err
		}
		return models.Activity{}, ErrActivityNotPending
	}

	return r.GetByID(ctx, id)
}

// AttachCredential stores issuance outputs; it is a separate write that happens after the
// status change is committed.
func (r *activityRepository) AttachCredential(ctx context.Context, id, token, locator string) (models.Activity, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ? AND status = ?", id, models.ActivityStatusApproved).
		Updates(map[string]interface{}{
			"credential_token": token,
			"document_locator": locator,
		})
	if result.Error != nil {
		return models.Activity{}, result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return models.Activity{}, err
		}
		return models.Activity{}, ErrActivityNotApproved
	}

	return r.GetByID(ctx, id)
}
