package dto

// ModerationRequest is the moderator's decision on a pending activity. Comment is a
// pointer so an omitted field can be told apart from an explicit empty string.
type ModerationRequest struct {
	Action    string  `json:"action"`
	Moderator *string `json:"moderator" validate:"omitempty,max=255"`
	Comment   *string `json:"comment" validate:"omitempty,max=2000"`
}

// ModerationResponse is returned after a committed transition.
type ModerationResponse struct {
	Status          string           `json:"status"`
	Token           *string          `json:"token,omitempty"`
	DocumentLocator *string          `json:"document_locator,omitempty"`
	StatusCommitted bool             `json:"status_committed"`
	Record          ActivityResponse `json:"record"`
}

// IssuanceResult describes a freshly issued credential.
type IssuanceResult struct {
	Token           string `json:"token"`
	DocumentLocator string `json:"document_locator"`
	ClaimID         string `json:"claim_id"`
}
