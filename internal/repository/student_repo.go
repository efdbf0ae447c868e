package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classpilot-go/internal/models"
)

// StudentRepository provides access to student records.
type StudentRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Student, error)
	GetOwned(ctx context.Context, teacherID, id string) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, teacherID, id string) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) GetOwned(ctx context.Context, teacherID, id string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Where("id = ? AND teacher_id = ?", id, teacherID).
		First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	result := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ? AND teacher_id = ?", student.ID, student.TeacherID).
		Select("name", "email", "age", "gender", "notes", "parent_email", "parent_phone", "updated_at").
		Updates(student)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Delete removes the student together with its enrollments.
func (r *studentRepository) Delete(ctx context.Context, teacherID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ? AND teacher_id = ?", id, teacherID).Delete(&models.Student{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}
