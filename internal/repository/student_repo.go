package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/skillfolio-api/internal/models"
)

// MaxStudentListLimit caps student listing size.
const MaxStudentListLimit = 500

// StudentRepository provides access to student records.
type StudentRepository interface {
	List(ctx context.Context, limit int) ([]models.Student, error)
	GetByStudentID(ctx context.Context, studentID string) (models.Student, error)
	Upsert(ctx context.Context, student *models.Student) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, limit int) ([]models.Student, error) {
	if limit <= 0 || limit > MaxStudentListLimit {
		limit = MaxStudentListLimit
	}

	var students []models.Student
	if err := r.db.WithContext(ctx).Order("student_id ASC").Limit(limit).Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) GetByStudentID(ctx context.Context, studentID string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}

	return student, nil
}

// Upsert inserts the student or refreshes the mutable columns of an existing one.
func (r *studentRepository) Upsert(ctx context.Context, student *models.Student) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "program", "year", "updated_at"}),
	}).Create(student).Error
	if err != nil {
		return err
	}

	// On conflict the generated key is not returned by every driver.
	stored, err := r.GetByStudentID(ctx, student.StudentID)
	if err != nil {
		return err
	}
	*student = stored
	return nil
}
