package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/models"
	"github.com/noah-isme/classpilot-go/internal/repository"
	"github.com/noah-isme/classpilot-go/internal/validation"
)

// ErrStudentNotFound indicates the student does not exist or belongs to another teacher.
var ErrStudentNotFound = errors.New("Student not found")

// StudentService manages the students of the authenticated teacher.
type StudentService interface {
	List(ctx context.Context, teacherID string) ([]dto.Student, error)
	Get(ctx context.Context, teacherID, id string) (dto.Student, error)
	Create(ctx context.Context, teacherID string, req dto.StudentRequest) (dto.Student, error)
	Update(ctx context.Context, teacherID, id string, req dto.StudentRequest) (dto.Student, error)
	Delete(ctx context.Context, teacherID, id string) error
}

type studentService struct {
	repo      repository.StudentRepository
	validator *validation.Validator
	sanitize  sanitizer
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo repository.StudentRepository, validator *validation.Validator, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:      repo,
		validator: validator,
		sanitize:  newSanitizer(),
		logger:    logger.With().Str("component", "student_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/classpilot-go/internal/service/student"),
		now:       time.Now,
	}
}

func (s *studentService) List(ctx context.Context, teacherID string) ([]dto.Student, error) {
	records, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	students := make([]dto.Student, 0, len(records))
	for _, record := range records {
		students = append(students, toStudentDTO(record))
	}
	return students, nil
}

func (s *studentService) Get(ctx context.Context, teacherID, id string) (dto.Student, error) {
	record, err := s.repo.GetOwned(ctx, teacherID, id)
	if err != nil {
		return dto.Student{}, mapStudentError(err)
	}
	return toStudentDTO(record), nil
}

func (s *studentService) Create(ctx context.Context, teacherID string, req dto.StudentRequest) (dto.Student, error) {
	ctx, span := s.tracer.Start(ctx, "students.create")
	defer span.End()

	req = s.clean(req)
	if err := s.validator.Struct(req); err != nil {
		return dto.Student{}, err
	}

	record := models.Student{TeacherID: teacherID}
	applyStudentRequest(&record, req)
	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		return dto.Student{}, err
	}

	span.SetAttributes(attribute.String("student.id", record.ID))
	s.logger.Info().Str("teacher_id", teacherID).Str("student_id", record.ID).Msg("student created")
	return toStudentDTO(record), nil
}

func (s *studentService) Update(ctx context.Context, teacherID, id string, req dto.StudentRequest) (dto.Student, error) {
	ctx, span := s.tracer.Start(ctx, "students.update", trace.WithAttributes(attribute.String("student.id", id)))
	defer span.End()

	req = s.clean(req)
	if err := s.validator.Struct(req); err != nil {
		return dto.Student{}, err
	}

	record := models.Student{ID: id, TeacherID: teacherID, UpdatedAt: s.now().UTC()}
	applyStudentRequest(&record, req)
	if err := s.repo.Update(ctx, &record); err != nil {
		return dto.Student{}, mapStudentError(err)
	}

	return s.Get(ctx, teacherID, id)
}

func (s *studentService) Delete(ctx context.Context, teacherID, id string) error {
	if err := s.repo.Delete(ctx, teacherID, id); err != nil {
		return mapStudentError(err)
	}
	s.logger.Info().Str("teacher_id", teacherID).Str("student_id", id).Msg("student deleted")
	return nil
}

func (s *studentService) clean(req dto.StudentRequest) dto.StudentRequest {
	req.Name = s.sanitize.text(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Gender = s.sanitize.text(req.Gender)
	req.Notes = s.sanitize.text(req.Notes)
	req.ParentEmail = strings.ToLower(strings.TrimSpace(req.ParentEmail))
	req.ParentPhone = s.sanitize.text(req.ParentPhone)
	return req
}

func applyStudentRequest(record *models.Student, req dto.StudentRequest) {
	record.Name = req.Name
	record.Email = req.Email
	record.Age = req.Age
	record.Gender = req.Gender
	record.Notes = req.Notes
	record.ParentEmail = req.ParentEmail
	record.ParentPhone = req.ParentPhone
}

func mapStudentError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrStudentNotFound
	}
	return err
}
