package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/models"
	"github.com/noah-isme/classpilot-go/internal/repository"
	"github.com/noah-isme/classpilot-go/internal/validation"
)

var (
	// ErrClassNotFound indicates the class does not exist or belongs to another teacher.
	ErrClassNotFound = errors.New("Class not found")
	// ErrEmptyBatch indicates an enrollment request without student ids.
	ErrEmptyBatch = errors.New("student_ids must contain at least one student")
	// ErrUnknownStudent indicates a batch naming a student the teacher does not own.
	ErrUnknownStudent = errors.New("One or more students were not found")
	// ErrAlreadyEnrolled indicates a batch repeating an id or naming an enrolled student.
	ErrAlreadyEnrolled = errors.New("One or more students are already enrolled in this class")
	// ErrCapacityExceeded indicates the batch would overfill the class.
	ErrCapacityExceeded = errors.New("class capacity exceeded")
	// ErrNotEnrolled indicates the student is not on the class roster.
	ErrNotEnrolled = errors.New("Student is not enrolled in this class")
)

// ClassService manages classes and their rosters for the authenticated teacher.
type ClassService interface {
	List(ctx context.Context, teacherID string) ([]dto.Class, error)
	Get(ctx context.Context, teacherID, id string) (dto.Class, error)
	Create(ctx context.Context, teacherID string, req dto.ClassRequest) (dto.Class, error)
	Update(ctx context.Context, teacherID, id string, req dto.ClassRequest) (dto.Class, error)
	Delete(ctx context.Context, teacherID, id string) error
	Enroll(ctx context.Context, teacherID, classID string, studentIDs []string) (dto.Class, error)
	Unenroll(ctx context.Context, teacherID, classID, studentID string) error
	Roster(ctx context.Context, teacherID, classID string) ([]dto.EnrolledStudent, error)
}

// ClassServiceConfig tunes server-side enrollment rules.
type ClassServiceConfig struct {
	EnforceCapacity bool
}

type classService struct {
	repo      repository.ClassRepository
	validator *validation.Validator
	sanitize  sanitizer
	cfg       ClassServiceConfig
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewClassService constructs the class service.
func NewClassService(repo repository.ClassRepository, validator *validation.Validator, cfg ClassServiceConfig, logger zerolog.Logger) ClassService {
	return &classService{
		repo:      repo,
		validator: validator,
		sanitize:  newSanitizer(),
		cfg:       cfg,
		logger:    logger.With().Str("component", "class_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/classpilot-go/internal/service/class"),
		now:       time.Now,
	}
}

func (s *classService) List(ctx context.Context, teacherID string) ([]dto.Class, error) {
	records, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	classes := make([]dto.Class, 0, len(records))
	for _, record := range records {
		classes = append(classes, toClassDTO(record))
	}
	return classes, nil
}

func (s *classService) Get(ctx context.Context, teacherID, id string) (dto.Class, error) {
	record, err := s.repo.GetOwned(ctx, teacherID, id)
	if err != nil {
		return dto.Class{}, mapClassError(err)
	}
	return toClassDTO(record), nil
}

func (s *classService) Create(ctx context.Context, teacherID string, req dto.ClassRequest) (dto.Class, error) {
	ctx, span := s.tracer.Start(ctx, "classes.create")
	defer span.End()

	req = s.clean(req)
	if err := s.validator.Struct(req); err != nil {
		return dto.Class{}, err
	}

	record := models.Class{TeacherID: teacherID}
	applyClassRequest(&record, req)
	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		return dto.Class{}, err
	}

	s.logger.Info().Str("teacher_id", teacherID).Str("class_id", record.ID).Msg("class created")
	return toClassDTO(record), nil
}

func (s *classService) Update(ctx context.Context, teacherID, id string, req dto.ClassRequest) (dto.Class, error) {
	req = s.clean(req)
	if err := s.validator.Struct(req); err != nil {
		return dto.Class{}, err
	}

	record := models.Class{ID: id, TeacherID: teacherID, UpdatedAt: s.now().UTC()}
	applyClassRequest(&record, req)
	if err := s.repo.Update(ctx, &record); err != nil {
		return dto.Class{}, mapClassError(err)
	}

	return s.Get(ctx, teacherID, id)
}

func (s *classService) Delete(ctx context.Context, teacherID, id string) error {
	if err := s.repo.Delete(ctx, teacherID, id); err != nil {
		return mapClassError(err)
	}
	s.logger.Info().Str("teacher_id", teacherID).Str("class_id", id).Msg("class deleted")
	return nil
}

// Enroll adds the whole batch or nothing. Every id must name a student of the
// teacher that is not yet on the roster.
func (s *classService) Enroll(ctx context.Context, teacherID, classID string, studentIDs []string) (dto.Class, error) {
	ctx, span := s.tracer.Start(ctx, "classes.enroll", trace.WithAttributes(
		attribute.String("class.id", classID),
		attribute.Int("batch.size", len(studentIDs)),
	))
	defer span.End()

	ids, err := normalizeBatch(studentIDs)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return dto.Class{}, err
	}

	check := func(class models.Class, students []models.Student) error {
		owned := make(map[string]struct{}, len(students))
		for _, student := range students {
			if student.TeacherID == teacherID {
				owned[student.ID] = struct{}{}
			}
		}
		enrolled := make(map[string]struct{}, len(class.Enrollments))
		for _, e := range class.Enrollments {
			enrolled[e.StudentID] = struct{}{}
		}

		for _, id := range ids {
			if _, ok := owned[id]; !ok {
				return ErrUnknownStudent
			}
			if _, ok := enrolled[id]; ok {
				return ErrAlreadyEnrolled
			}
		}

		if s.cfg.EnforceCapacity && class.Capacity != nil && len(class.Enrollments)+len(ids) > *class.Capacity {
			return ErrCapacityExceeded
		}
		return nil
	}

	if err := s.repo.Enroll(ctx, teacherID, classID, ids, check); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return dto.Class{}, mapClassError(err)
	}

	s.logger.Info().
		Str("teacher_id", teacherID).
		Str("class_id", classID).
		Int("enrolled", len(ids)).
		Msg("students enrolled")
	return s.Get(ctx, teacherID, classID)
}

func (s *classService) Unenroll(ctx context.Context, teacherID, classID, studentID string) error {
	if _, err := s.repo.GetOwned(ctx, teacherID, classID); err != nil {
		return mapClassError(err)
	}
	if err := s.repo.RemoveEnrollment(ctx, teacherID, classID, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnrolled
		}
		return err
	}
	return nil
}

func (s *classService) Roster(ctx context.Context, teacherID, classID string) ([]dto.EnrolledStudent, error) {
	class, err := s.Get(ctx, teacherID, classID)
	if err != nil {
		return nil, err
	}
	return class.Students, nil
}

func (s *classService) clean(req dto.ClassRequest) dto.ClassRequest {
	req.Name = s.sanitize.text(req.Name)
	req.Description = s.sanitize.text(req.Description)
	req.Subject = s.sanitize.text(req.Subject)
	req.Schedule = s.sanitize.text(req.Schedule)
	return req
}

func normalizeBatch(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyBatch
	}

	seen := make(map[string]struct{}, len(raw))
	ids := make([]string, 0, len(raw))
	for _, value := range raw {
		id, ok := dto.NormalizeID(value)
		if !ok {
			return nil, ErrUnknownStudent
		}
		if _, dup := seen[id.String()]; dup {
			return nil, ErrAlreadyEnrolled
		}
		seen[id.String()] = struct{}{}
		ids = append(ids, id.String())
	}
	return ids, nil
}

func applyClassRequest(record *models.Class, req dto.ClassRequest) {
	record.Name = req.Name
	record.Description = req.Description
	record.Subject = req.Subject
	record.GradeLevel = req.GradeLevel
	record.Schedule = req.Schedule
	record.Capacity = req.Capacity
}

func mapClassError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrClassNotFound
	}
	return err
}
