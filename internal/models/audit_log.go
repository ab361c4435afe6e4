package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog captures moderation and issuance events for operator diagnosis.
type AuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Actor      string            `gorm:"size:255" json:"actor"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	ActivityID string            `gorm:"size:32;index" json:"activity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
