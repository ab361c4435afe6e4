package dto

import (
	"time"

	"github.com/noah-isme/skillfolio-api/internal/models"
)

// AuditLogResponse serialises an audit entry.
type AuditLogResponse struct {
	ID         uint                   `json:"id"`
	Actor      string                 `json:"actor"`
	Action     string                 `json:"action"`
	ActivityID string                 `json:"activity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewAuditLogResponse converts a model into its API representation.
func NewAuditLogResponse(entry models.AuditLog) AuditLogResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}
	return AuditLogResponse{
		ID:         entry.ID,
		Actor:      entry.Actor,
		Action:     entry.Action,
		ActivityID: entry.ActivityID,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt,
	}
}
