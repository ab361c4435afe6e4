package models

import "time"

// Student represents a learner known to the institution. Activities reference students by
// StudentID without a foreign key.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	StudentID string    `gorm:"size:64;uniqueIndex;not null" json:"student_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	Program   string    `gorm:"size:128" json:"program"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
