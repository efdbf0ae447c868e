package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/classpilot-go/internal/models"
)

// EnrollCheck validates a batch inside the enrollment transaction. It receives
// the class with its current enrollments and the students named by the batch
// that exist.
type EnrollCheck func(class models.Class, students []models.Student) error

// ClassRepository provides access to classes and their enrollments.
type ClassRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
	GetOwned(ctx context.Context, teacherID, id string) (models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, teacherID, id string) error
	Enroll(ctx context.Context, teacherID, classID string, studentIDs []string, check EnrollCheck) error
	RemoveEnrollment(ctx context.Context, teacherID, classID, studentID string) error
}

type classRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewClassRepository constructs a class repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db, now: time.Now}
}

func withRoster(db *gorm.DB) *gorm.DB {
	return db.Preload("Enrollments", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("enrolled_at ASC")
	}).Preload("Enrollments.Student")
}

func (r *classRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	var classes []models.Class
	if err := withRoster(r.db.WithContext(ctx)).
		Where("teacher_id = ?", teacherID).
		Order("created_at ASC").
		Find(&classes).Error; err != nil {
		return nil, err
	}

	return classes, nil
}

func (r *classRepository) GetOwned(ctx context.Context, teacherID, id string) (models.Class, error) {
	var class models.Class
	if err := withRoster(r.db.WithContext(ctx)).
		Where("id = ? AND teacher_id = ?", id, teacherID).
		First(&class).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Omit("Enrollments").Create(class).Error
}

func (r *classRepository) Update(ctx context.Context, class *models.Class) error {
	result := r.db.WithContext(ctx).
		Model(&models.Class{}).
		Where("id = ? AND teacher_id = ?", class.ID, class.TeacherID).
		Select("name", "description", "subject", "grade_level", "schedule", "capacity", "updated_at").
		Updates(class)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Delete removes the class together with its enrollments.
func (r *classRepository) Delete(ctx context.Context, teacherID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ? AND teacher_id = ?", id, teacherID).Delete(&models.Class{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

// Enroll inserts the batch in one transaction after check accepts it.
func (r *classRepository) Enroll(ctx context.Context, teacherID, classID string, studentIDs []string, check EnrollCheck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var class models.Class
		if err := tx.Preload("Enrollments").
			Where("id = ? AND teacher_id = ?", classID, teacherID).
			First(&class).Error; err != nil {
			return err
		}

		var students []models.Student
		if len(studentIDs) > 0 {
			if err := tx.Where("id IN ?", studentIDs).Find(&students).Error; err != nil {
				return err
			}
		}

		if check != nil {
			if err := check(class, students); err != nil {
				return err
			}
		}

		now := r.now().UTC()
		rows := make([]models.Enrollment, 0, len(studentIDs))
		for _, id := range studentIDs {
			rows = append(rows, models.Enrollment{ClassID: classID, StudentID: id, EnrolledAt: now})
		}
		if len(rows) == 0 {
			return nil
		}

		return tx.Omit("Student").Create(&rows).Error
	})
}

func (r *classRepository) RemoveEnrollment(ctx context.Context, teacherID, classID, studentID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Class{}).
			Where("id = ? AND teacher_id = ?", classID, teacherID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		result := tx.Where("class_id = ? AND student_id = ?", classID, studentID).Delete(&models.Enrollment{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}
