package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Student represents a learner owned by one teacher.
type Student struct {
	ID          string    `gorm:"primaryKey;size:36"`
	TeacherID   string    `gorm:"size:36;index;not null"`
	Name        string    `gorm:"size:100;not null"`
	Email       string    `gorm:"size:255;not null"`
	Age         int       `gorm:"not null"`
	Gender      string    `gorm:"size:20"`
	Notes       string    `gorm:"type:text"`
	ParentEmail string    `gorm:"size:255"`
	ParentPhone string    `gorm:"size:20"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

// BeforeCreate assigns a UUID when the record has no identifier yet.
func (s *Student) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
