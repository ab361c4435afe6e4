package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillfolio-api/internal/dto"
	"github.com/noah-isme/skillfolio-api/internal/models"
	"github.com/noah-isme/skillfolio-api/internal/repository"
)

// ActivityService exposes activity submission and lookup.
type ActivityService interface {
	Create(ctx context.Context, req dto.ActivityCreateRequest) (models.Activity, error)
	List(ctx context.Context, req dto.ActivityListRequest) ([]models.Activity, error)
	Get(ctx context.Context, id string) (models.Activity, error)
}

type activityService struct {
	repo      repository.ActivityRepository
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(repo repository.ActivityRepository, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Create(ctx context.Context, req dto.ActivityCreateRequest) (models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Activity{}, err
	}

	date, err := parseActivityDate(req.Date)
	if err != nil {
		return models.Activity{}, err
	}

	activity := models.Activity{
		StudentID:    strings.TrimSpace(req.StudentID),
		StudentName:  s.clean(req.StudentName),
		Title:        s.clean(req.Title),
		ActivityType: s.clean(req.ActivityType),
		Date:         date,
		Hours:        req.Hours,
		Description:  s.clean(req.Description),
		EvidenceURL:  strings.TrimSpace(req.EvidenceURL),
		Status:       models.ActivityStatusPending,
	}
	if activity.Title == "" {
		return models.Activity{}, fmt.Errorf("%w: title is empty after sanitising", ErrInvalidActivity)
	}

	if err := s.repo.Create(ctx, &activity); err != nil {
		s.logger.Error().Err(err).Str("student_id", activity.StudentID).Msg("failed to persist activity")
		return models.Activity{}, err
	}

	s.logger.Info().Str("activity_id", activity.ID).Str("student_id", activity.StudentID).Msg("activity submitted")
	return activity, nil
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) ([]models.Activity, error) {
	filter := repository.ActivityFilter{
		StudentID: strings.TrimSpace(req.StudentID),
		Limit:     req.Limit,
	}
	if strings.TrimSpace(req.Status) != "" {
		status, ok := models.ParseActivityStatus(req.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		filter.Status = status
	}

	return s.repo.List(ctx, filter)
}

func (s *activityService) Get(ctx context.Context, id string) (models.Activity, error) {
	activity, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}
	return activity, nil
}

// clean strips markup and returns plain text.
func (s *activityService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}

func parseActivityDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			parsed = parsed.UTC()
			return &parsed, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}
