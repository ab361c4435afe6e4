// Package credential builds, signs and verifies student activity credentials.
//
// A credential is a JWT whose claim set embeds everything a relying party needs to
// render the original activity, so verification never consults the record store.
package credential

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/skillfolio-api/internal/models"
)

// Validity is the fixed lifetime of an issued credential.
const Validity = 365 * 24 * time.Hour

// Credential type tags embedded in every token.
const (
	TypeVerifiableCredential = "VerifiableCredential"
	TypeStudentActivity      = "StudentActivityCredential"
)

const (
	subjectPrefix = "student:"
	claimIDPrefix = "activity:"
	unknownName   = "Unknown"
	dateLayout    = "2006-01-02"
)

// Claims is the signed claim set of an activity credential.
type Claims struct {
	VC VerifiableCredential `json:"vc"`
	jwt.RegisteredClaims
}

// VerifiableCredential is the nested credential body.
type VerifiableCredential struct {
	Type              []string          `json:"type"`
	CredentialSubject CredentialSubject `json:"credentialSubject"`
}

// CredentialSubject describes the student and the verified activity.
type CredentialSubject struct {
	StudentID  string        `json:"student_id"`
	Name       string        `json:"name"`
	Activity   ActivityClaim `json:"activity"`
	VerifiedBy VerifiedBy    `json:"verified_by"`
	VerifiedAt string        `json:"verified_at"`
}

// ActivityClaim carries the descriptive fields of the activity. Absent values encode as null.
type ActivityClaim struct {
	Title       string   `json:"title"`
	Date        *string  `json:"date"`
	Hours       *float64 `json:"hours"`
	Description *string  `json:"description"`
	EvidenceURL *string  `json:"evidence_url"`
}

// VerifiedBy names the moderator who approved the activity.
type VerifiedBy struct {
	Name string `json:"name"`
}

// SubjectFor returns the credential subject identifier for a student.
func SubjectFor(studentID string) string {
	return subjectPrefix + studentID
}

// ClaimIDFor returns the credential identifier for an activity.
func ClaimIDFor(activityID string) string {
	return claimIDPrefix + activityID
}

// ModeratorName resolves the display name of the approving moderator.
func ModeratorName(moderator string, activity models.Activity) string {
	if name := strings.TrimSpace(moderator); name != "" {
		return name
	}
	if name := strings.TrimSpace(activity.Moderator); name != "" {
		return name
	}
	return unknownName
}

// BuildClaims derives the claim set from an approved activity. Apart from the timestamps it
// is a pure function of its inputs.
func BuildClaims(issuer string, activity models.Activity, moderator string, now time.Time) Claims {
	now = now.UTC()

	return Claims{
		VC: VerifiableCredential{
			Type: []string{TypeVerifiableCredential, TypeStudentActivity},
			CredentialSubject: CredentialSubject{
				StudentID: activity.StudentID,
				Name:      activity.StudentName,
				Activity: ActivityClaim{
					Title:       activity.Title,
					Date:        formatDate(activity.Date),
					Hours:       activity.Hours,
					Description: optionalString(activity.Description),
					EvidenceURL: optionalString(activity.EvidenceURL),
				},
				VerifiedBy: VerifiedBy{Name: ModeratorName(moderator, activity)},
				VerifiedAt: now.Format(time.RFC3339),
			},
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   SubjectFor(activity.StudentID),
			ID:        ClaimIDFor(activity.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(Validity)),
		},
	}
}

func formatDate(date *time.Time) *string {
	if date == nil || date.IsZero() {
		return nil
	}
	formatted := date.UTC().Format(dateLayout)
	return &formatted
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
