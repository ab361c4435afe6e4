package dto

import (
	"time"

	"github.com/noah-isme/skillfolio-api/internal/models"
)

// StudentCreateRequest registers or updates a student record.
type StudentCreateRequest struct {
	StudentID string `json:"student_id" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=255"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Program   string `json:"program" validate:"max=128"`
	Year      int    `json:"year" validate:"omitempty,gte=1,lte=10"`
}

// StudentResponse serialises a student record.
type StudentResponse struct {
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Program   string    `json:"program"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStudentResponse converts a model into its API representation.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		StudentID: student.StudentID,
		Name:      student.Name,
		Email:     student.Email,
		Program:   student.Program,
		Year:      student.Year,
		CreatedAt: student.CreatedAt,
		UpdatedAt: student.UpdatedAt,
	}
}

// StudentListResponse wraps student listings.
type StudentListResponse struct {
	Items    []StudentResponse `json:"items"`
	CacheHit bool              `json:"cache_hit"`
}

// StudentImportRow reports the outcome of one CSV row.
type StudentImportRow struct {
	Line      int    `json:"line"`
	StudentID string `json:"student_id"`
	Error     string `json:"error,omitempty"`
}

// StudentImportReport summarises a CSV import.
type StudentImportReport struct {
	Imported int                `json:"imported"`
	Failed   int                `json:"failed"`
	Rows     []StudentImportRow `json:"rows"`
}
