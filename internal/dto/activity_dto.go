package dto

import (
	"time"

	"github.com/noah-isme/skillfolio-api/internal/models"
)

// ActivityCreateRequest is the payload students submit for a new activity claim.
type ActivityCreateRequest struct {
	StudentID    string   `json:"student_id" validate:"required,max=64"`
	StudentName  string   `json:"student_name" validate:"max=255"`
	Title        string   `json:"title" validate:"required,max=255"`
	ActivityType string   `json:"type" validate:"max=64"`
	Date         string   `json:"date" validate:"omitempty,max=64"`
	Hours        *float64 `json:"hours" validate:"omitempty,gte=0,lte=10000"`
	Description  string   `json:"description" validate:"max=5000"`
	EvidenceURL  string   `json:"evidence_url" validate:"omitempty,url,max=1024"`
}

// ActivityListRequest captures list filters.
type ActivityListRequest struct {
	Status    string
	StudentID string
	Limit     int
}

// ActivityResponse serialises an activity record.
type ActivityResponse struct {
	ID              string     `json:"id"`
	StudentID       string     `json:"student_id"`
	StudentName     string     `json:"student_name"`
	Title           string     `json:"title"`
	ActivityType    string     `json:"type"`
	Date            *string    `json:"date"`
	Hours           *float64   `json:"hours"`
	Description     string     `json:"description"`
	EvidenceURL     string     `json:"evidence_url"`
	Status          string     `json:"status"`
	Moderator       string     `json:"moderator"`
	Comment         string     `json:"comment"`
	VerifiedAt      *time.Time `json:"verified_at"`
	CredentialToken *string    `json:"credential_token"`
	DocumentLocator *string    `json:"document_locator"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewActivityResponse converts a model into its API representation.
func NewActivityResponse(activity models.Activity) ActivityResponse {
	var date *string
	if activity.Date != nil && !activity.Date.IsZero() {
		formatted := activity.Date.UTC().Format("2006-01-02")
		date = &formatted
	}

	return ActivityResponse{
		ID:              activity.ID,
		StudentID:       activity.StudentID,
		StudentName:     activity.StudentName,
		Title:           activity.Title,
		ActivityType:    activity.ActivityType,
		Date:            date,
		Hours:           activity.Hours,
		Description:     activity.Description,
		EvidenceURL:     activity.EvidenceURL,
		Status:          string(activity.Status),
		Moderator:       activity.Moderator,
		Comment:         activity.Comment,
		VerifiedAt:      activity.VerifiedAt,
		CredentialToken: activity.CredentialToken,
		DocumentLocator: activity.DocumentLocator,
		CreatedAt:       activity.CreatedAt,
		UpdatedAt:       activity.UpdatedAt,
	}
}

// NewActivityResponses converts a slice of models.
func NewActivityResponses(activities []models.Activity) []ActivityResponse {
	items := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		items = append(items, NewActivityResponse(activity))
	}
	return items
}

// ActivityListResponse wraps activity listings.
type ActivityListResponse struct {
	Items []ActivityResponse `json:"items"`
	Count int                `json:"count"`
}
