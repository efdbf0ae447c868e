package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Class is a teacher-owned group of enrolled students.
type Class struct {
	ID          string `gorm:"primaryKey;size:36"`
	TeacherID   string `gorm:"size:36;index;not null"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"type:text"`
	Subject     string `gorm:"size:100"`
	GradeLevel  *int
	Schedule    string `gorm:"size:255"`
	Capacity    *int
	Enrollments []Enrollment `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time    `gorm:"index"`
	UpdatedAt   time.Time
}

// BeforeCreate assigns a UUID when the record has no identifier yet.
func (c *Class) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Enrollment links a student to a class. The composite key keeps the roster
// free of duplicates.
type Enrollment struct {
	ClassID    string    `gorm:"primaryKey;size:36"`
	StudentID  string    `gorm:"primaryKey;size:36;index"`
	Student    Student   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	EnrolledAt time.Time `gorm:"not null"`
}

// All lists the models migrated by the development server.
func All() []interface{} {
	return []interface{}{&Teacher{}, &Student{}, &Class{}, &Enrollment{}, &RevokedToken{}}
}
