package dto

import "github.com/noah-isme/skillfolio-api/internal/credential"

// VerificationResponse is the public verify endpoint's body.
type VerificationResponse struct {
	Valid   bool               `json:"valid"`
	Payload *credential.Claims `json:"payload,omitempty"`
	Error   string             `json:"error,omitempty"`
}
