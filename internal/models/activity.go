package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/skillfolio-api/internal/idgen"
)

// ActivityStatus describes where an activity sits in the moderation workflow.
type ActivityStatus string

const (
	// ActivityStatusPending is the only valid initial state.
	ActivityStatusPending ActivityStatus = "pending"
	// ActivityStatusApproved is terminal; a credential is attached on successful issuance.
	ActivityStatusApproved ActivityStatus = "approved"
	// ActivityStatusRejected is terminal.
	ActivityStatusRejected ActivityStatus = "rejected"
)

// ParseModerationAction maps a moderator supplied action onto a terminal status.
func ParseModerationAction(action string) (ActivityStatus, bool) {
	switch ActivityStatus(strings.ToLower(strings.TrimSpace(action))) {
	case ActivityStatusApproved:
		return ActivityStatusApproved, true
	case ActivityStatusRejected:
		return ActivityStatusRejected, true
	default:
		return "", false
	}
}

// ParseActivityStatus validates a status filter value.
func ParseActivityStatus(value string) (ActivityStatus, bool) {
	status := ActivityStatus(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case ActivityStatusPending, ActivityStatusApproved, ActivityStatusRejected:
		return status, true
	default:
		return "", false
	}
}

// Activity is an extracurricular claim submitted by a student.
type Activity struct {
	ID              string         `gorm:"primaryKey;size:32" json:"id"`
	StudentID       string         `gorm:"size:64;not null;index" json:"student_id"`
	StudentName     string         `gorm:"size:255" json:"student_name"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	ActivityType    string         `gorm:"size:64" json:"type"`
	Date            *time.Time     `json:"date"`
	Hours           *float64       `json:"hours"`
	Description     string         `gorm:"type:text" json:"description"`
	EvidenceURL     string         `gorm:"size:1024" json:"evidence_url"`
	Status          ActivityStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	Moderator       string         `gorm:"size:255" json:"moderator"`
	Comment         string         `gorm:"type:text" json:"comment"`
	VerifiedAt      *time.Time     `json:"verified_at"`
	CredentialToken *string        `gorm:"type:text" json:"credential_token"`
	DocumentLocator *string        `gorm:"size:1024" json:"document_locator"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// BeforeCreate assigns an identifier when the caller did not supply one.
func (a *Activity) BeforeCreate(_ *gorm.DB) error {
	if a.ID != "" {
		return nil
	}
	id, err := idgen.NewActivityID()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// IsPending reports whether the activity still awaits moderation.
func (a Activity) IsPending() bool {
	return a.Status == ActivityStatusPending
}

// IsFinal reports whether the activity reached a terminal status.
func (a Activity) IsFinal() bool {
	return a.Status == ActivityStatusApproved || a.Status == ActivityStatusRejected
}

// IsApproved reports whether the activity was approved.
func (a Activity) IsApproved() bool {
	return a.Status == ActivityStatusApproved
}

// HasCredential reports whether issuance outputs are attached.
func (a Activity) HasCredential() bool {
	return a.CredentialToken != nil && *a.CredentialToken != "" && a.DocumentLocator != nil && *a.DocumentLocator != ""
}
